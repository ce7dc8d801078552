package models

// All returns every model that needs migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&ComputeInstance{},
		&DatabaseInstance{},
	}
}
