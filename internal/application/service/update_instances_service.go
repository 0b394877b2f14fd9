package service

import (
	"log"

	"DPDB/internal/domain"
)

// UpdateInstancesService replaces the replica set pushed by the config
// server. Malformed entries and this node's own registration are dropped
// before the set is handed to the instance manager.
type UpdateInstancesService struct {
	manager *domain.DbInstanceManager
}

func NewUpdateInstancesService(manager *domain.DbInstanceManager) *UpdateInstancesService {
	return &UpdateInstancesService{
		manager: manager,
	}
}

func (u *UpdateInstancesService) Execute(instances []domain.DbInstance) int {
	current := u.manager.CurrentInstance
	replicas := make([]domain.DbInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.Id == "" || inst.Host == "" {
			log.Printf("Ignoring malformed replica instance %+v", inst)
			continue
		}
		if current != nil && inst.Id == current.Id {
			continue
		}
		replicas = append(replicas, inst)
	}
	u.manager.SetReplicas(&replicas)
	log.Println("Replica set updated,", len(replicas), "replicas tracked")
	return len(replicas)
}
