package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin roles
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Admin represents a backoffice account
type Admin struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"` // Never return password in JSON
	Role        string             `bson:"role" json:"role"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	LastLoginAt *time.Time         `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// ErrorLog records a request that failed on the server side
type ErrorLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RequestID string             `bson:"request_id" json:"request_id"`
	Method    string             `bson:"method" json:"method"`
	Path      string             `bson:"path" json:"path"`
	Status    int                `bson:"status" json:"status"`
	Message   string             `bson:"message" json:"message"`
	IPHash    string             `bson:"ip_hash" json:"ip_hash"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// IsValidRole reports whether role is a known admin role
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
