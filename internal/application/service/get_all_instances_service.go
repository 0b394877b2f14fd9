package service

import (
	"fmt"
	"log"

	"DPDB/internal/domain"
	"DPDB/internal/platform/client"
)

// GetAllInstancesService pulls the full instance list from the config server
// at startup and seeds the instance manager with every peer except this node
// itself.
type GetAllInstancesService struct {
	configServer    *client.ConfigServerClient
	instanceManager *domain.DbInstanceManager
}

func NewGetAllInstancesService(configServer *client.ConfigServerClient,
	instanceManager *domain.DbInstanceManager) *GetAllInstancesService {
	return &GetAllInstancesService{
		configServer:    configServer,
		instanceManager: instanceManager,
	}
}

func (g *GetAllInstancesService) Execute() error {
	instances, err := g.configServer.FindAllInstances()
	if err != nil {
		return fmt.Errorf("fetching replica set from config server: %w", err)
	}

	replicas := make([]domain.DbInstance, 0, len(*instances))
	current := g.instanceManager.CurrentInstance
	for _, inst := range *instances {
		if current != nil && inst.Id == current.Id {
			continue
		}
		replicas = append(replicas, inst)
	}
	g.instanceManager.SetReplicas(&replicas)
	log.Println("Replica set seeded from config server,", len(replicas), "peers")
	return nil
}
