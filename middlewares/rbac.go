package middlewares

import (
	"fmt"
	"net/http"

	"pollhub/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Resources and actions guarded by RequirePermission
const (
	ResourceDebate    = "debate"
	ResourceQuestion  = "question"
	ResourceComment   = "comment"
	ResourceRequest   = "request"
	ResourceGuestbook = "guestbook"
	ResourceErrorLog  = "error_log"
	ResourceAdmin     = "admin"

	ActionRead   = "read"
	ActionDelete = "delete"
	ActionAnswer = "answer"
	ActionStatus = "status"
	ActionCreate = "create"
)

var defaultPolicies = [][]string{
	{models.RoleAdmin, ResourceDebate, ActionRead},
	{models.RoleAdmin, ResourceDebate, ActionDelete},
	{models.RoleAdmin, ResourceQuestion, ActionAnswer},
	{models.RoleAdmin, ResourceQuestion, ActionStatus},
	{models.RoleAdmin, ResourceQuestion, ActionDelete},
	{models.RoleAdmin, ResourceComment, ActionDelete},
	{models.RoleAdmin, ResourceRequest, ActionStatus},
	{models.RoleAdmin, ResourceRequest, ActionDelete},
	{models.RoleAdmin, ResourceGuestbook, ActionDelete},
	{models.RoleAdmin, ResourceErrorLog, ActionRead},
	{models.RoleSuperAdmin, ResourceAdmin, ActionRead},
	{models.RoleSuperAdmin, ResourceAdmin, ActionCreate},
}

// NewMongoAdapter persists casbin policies in the casbin_rule collection of
// the database named in uri.
func NewMongoAdapter(uri string) (persist.Adapter, error) {
	adapter, err := mongodbadapter.NewAdapter(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin adapter: %w", err)
	}
	return adapter, nil
}

// NewEnforcer builds the RBAC enforcer. A nil adapter keeps policies in
// memory. Default policies are added when missing, and super_admin inherits
// every admin permission.
func NewEnforcer(adapter persist.Adapter) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin model: %w", err)
	}

	var enforcer *casbin.Enforcer
	if adapter == nil {
		enforcer, err = casbin.NewEnforcer(m)
	} else {
		enforcer, err = casbin.NewEnforcer(m, adapter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}

	if err := ensureDefaultPolicies(enforcer); err != nil {
		return nil, err
	}
	log.Info().Bool("persistent", adapter != nil).Msg("casbin RBAC initialized")
	return enforcer, nil
}

// ensureDefaultPolicies is idempotent; with an adapter, added rules are
// saved immediately.
func ensureDefaultPolicies(e *casbin.Enforcer) error {
	for _, p := range defaultPolicies {
		exists, err := e.HasPolicy(p[0], p[1], p[2])
		if err != nil {
			return fmt.Errorf("failed to check policy: %w", err)
		}
		if exists {
			continue
		}
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", p, err)
		}
		log.Debug().Strs("policy", p).Msg("added default policy")
	}

	inherits, err := e.HasGroupingPolicy(models.RoleSuperAdmin, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role inheritance: %w", err)
	}
	if !inherits {
		if _, err := e.AddGroupingPolicy(models.RoleSuperAdmin, models.RoleAdmin); err != nil {
			return fmt.Errorf("failed to add role inheritance: %w", err)
		}
	}
	return nil
}

// RequirePermission checks the role of the admin stored by RequireAdmin
// against the enforcer.
func RequirePermission(e *casbin.Enforcer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentAdmin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		allowed, err := e.Enforce(user.Role, resource, action)
		if err != nil {
			log.Error().Err(err).Str("role", user.Role).Msg("casbin enforce failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "permission check failed"})
			return
		}
		if !allowed {
			log.Warn().
				Str("username", user.Username).
				Str("role", user.Role).
				Str("resource", resource).
				Str("action", action).
				Msg("permission denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}
