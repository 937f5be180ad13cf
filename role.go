package flock

import "github.com/arloliu/flock/types"

// Role identifies whether a process-role object was constructed as a
// master (Supervisor) or a worker (Self). It is fixed at construction
// time; the library never auto-detects which role a process plays.
type Role = types.Role

const (
	RoleUnknown = types.RoleUnknown
	RoleMaster  = types.RoleMaster
	RoleWorker  = types.RoleWorker
)
