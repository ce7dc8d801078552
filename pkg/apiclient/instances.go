package apiclient

import (
	"net/url"
	"time"
)

// Instance is a compute instance record.
type Instance struct {
	InstanceID   string    `json:"instance_id"`
	Identifier   string    `json:"identifier"`
	AmiID        string    `json:"ami_id"`
	InstanceType string    `json:"instance_type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateInstanceRequest struct {
	Identifier   string `json:"identifier"`
	AmiID        string `json:"ami_id"`
	InstanceType string `json:"instance_type,omitempty"`
}

// DBInstance is a database instance record.
type DBInstance struct {
	InstanceID string    `json:"instance_id"`
	Identifier string    `json:"identifier"`
	Username   string    `json:"username"`
	Password   string    `json:"password"`
	Endpoint   string    `json:"endpoint"`
	Port       int       `json:"port"`
	Engine     string    `json:"engine"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateDBInstanceRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Engine     string `json:"engine"`
}

func instancePath(id string) string { return "/ec2/instances/" + url.PathEscape(id) }
func dbPath(id string) string       { return "/rds/" + url.PathEscape(id) }

func (c *Client) CreateInstance(req CreateInstanceRequest) (*Instance, error) {
	return createResource[Instance](c, "/ec2/instances", req)
}

func (c *Client) ListInstances() ([]Instance, error) {
	return listResources[Instance](c, "/ec2/instances")
}

func (c *Client) GetInstance(id string) (*Instance, error) {
	return getResource[Instance](c, instancePath(id))
}

func (c *Client) StartInstance(id string) (*Instance, error) {
	return createResource[Instance](c, instancePath(id)+"/start", nil)
}

func (c *Client) StopInstance(id string) (*Instance, error) {
	return createResource[Instance](c, instancePath(id)+"/stop", nil)
}

func (c *Client) DeleteInstance(id string) error {
	return c.delete(instancePath(id), nil)
}

func (c *Client) CreateDBInstance(req CreateDBInstanceRequest) (*DBInstance, error) {
	return createResource[DBInstance](c, "/rds/", req)
}

func (c *Client) ListDBInstances() ([]DBInstance, error) {
	return listResources[DBInstance](c, "/rds/")
}

func (c *Client) GetDBInstance(id string) (*DBInstance, error) {
	return getResource[DBInstance](c, dbPath(id))
}

func (c *Client) StartDBInstance(id string) (*DBInstance, error) {
	return createResource[DBInstance](c, dbPath(id)+"/start", nil)
}

func (c *Client) StopDBInstance(id string) (*DBInstance, error) {
	return createResource[DBInstance](c, dbPath(id)+"/stop", nil)
}

func (c *Client) DeleteDBInstance(id string) error {
	return c.delete(dbPath(id), nil)
}
