package types

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateInstanceRequest struct {
	Identifier   string `json:"identifier" validate:"required,resource_name"`
	AmiID        string `json:"ami_id" validate:"required"`
	InstanceType string `json:"instance_type" validate:"omitempty,max=64"`
}

// CreateDBInstanceRequest leaves engine unconstrained; unsupported engines
// are rejected by the controller with their own error code.
type CreateDBInstanceRequest struct {
	Identifier string `json:"identifier" validate:"required,resource_name"`
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Engine     string `json:"engine" validate:"required"`
}
