package identity

import "context"

// ConfigIdentity resuelve el registro de identidad desde la configuración
// local: una identidad está registrada si se configuró un agent ID.
type ConfigIdentity struct {
	agentID string
}

func NewConfigIdentity(agentID string) *ConfigIdentity {
	return &ConfigIdentity{agentID: agentID}
}

// Registered responde si la dirección tiene identidad registrada.
func (c *ConfigIdentity) Registered(_ context.Context, _ string) bool {
	return c.agentID != ""
}
