package models

import (
	"strings"
	"time"
)

// InstanceStatus is the last status a controller commanded for an instance.
// It is not refreshed from the runtime.
type InstanceStatus string

const (
	StatusRunning InstanceStatus = "running"
	StatusStopped InstanceStatus = "stopped"
)

const (
	// ComputeIdentifierPrefix namespaces compute identifiers and their container names.
	ComputeIdentifierPrefix = "ec2-"
	// DatabaseIdentifierPrefix namespaces database identifiers and their container names.
	DatabaseIdentifierPrefix = "db-"

	DefaultInstanceType = "t2.micro"
)

// ComputeInstance is an EC2-like instance backed by one long-running container.
type ComputeInstance struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"instance_id"`
	Identifier   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"identifier"`
	ImageRef     string         `gorm:"column:ami_id;not null" json:"ami_id"`
	InstanceType string         `gorm:"type:varchar(64);not null" json:"instance_type"`
	Status       InstanceStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (ComputeInstance) TableName() string { return "instances" }

// Engine is a supported managed-database engine.
type Engine string

const (
	EngineMySQL    Engine = "mysql"
	EnginePostgres Engine = "postgres"
)

// ParseEngine normalizes an engine name. ok is false for unsupported engines.
func ParseEngine(s string) (Engine, bool) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(s))); e {
	case EngineMySQL, EnginePostgres:
		return e, true
	default:
		return "", false
	}
}

// DatabaseInstance is an RDS-like database backed by one engine container.
//
// Username and Password are stored and returned in cleartext for parity with the
// emulated service. This needs a security review before it is relied on anywhere else.
type DatabaseInstance struct {
	ID         string         `gorm:"primaryKey;type:varchar(64)" json:"instance_id"`
	Identifier string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"identifier"`
	Username   string         `gorm:"not null" json:"username"`
	Password   string         `gorm:"not null" json:"password"`
	Endpoint   string         `gorm:"not null" json:"endpoint"`
	Port       int            `gorm:"not null" json:"port"`
	Engine     Engine         `gorm:"type:varchar(16);not null" json:"engine"`
	Status     InstanceStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (DatabaseInstance) TableName() string { return "db_instances" }
