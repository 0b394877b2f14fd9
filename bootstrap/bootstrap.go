package bootstrap

import (
	"DPDB/internal/application/service"
	"DPDB/internal/domain"
	"DPDB/internal/platform/api/zmq"
	"DPDB/internal/platform/client"
	"DPDB/internal/platform/config"
	"DPDB/internal/platform/repository"
	"DPDB/internal/platform/repository/deepfile"
	"DPDB/internal/platform/server"
	"DPDB/internal/platform/server/handler/dbentry"
	"DPDB/internal/platform/server/handler/dbinstance"

	"go.uber.org/dig"
)

func Run() (bool, error) {
	container := dig.New()
	serviceConstructors := []interface{}{
		config.LoadConfig,
		database,
		entryRepository,
		domain.NewDbInstanceManager,
		service.NewSaveEntryService,
		service.NewGetEntryService,
		service.NewDeleteEntryService,
		service.NewListKeysService,
		service.NewOptimizeService,
		service.NewInstanceAutoRegisterService,
		service.NewUpdateInstancesService,
		service.NewGetAllInstancesService,
		server.NewServer,
		dbentry.NewDbEntryHandler,
		dbinstance.NewDbInstanceHandler,
		zmq.NewZmqApi,
		configServerClient,
	}
	for _, service := range serviceConstructors {
		if err := container.Provide(service); err != nil {
			return false, err
		}
	}
	err := container.Invoke(func(cfg config.Config,
		s server.Server,
		api *zmq.ZmqApi,
		ar *service.InstanceAutoRegisterService,
		g *service.GetAllInstancesService) {
		if cfg.ConfigServerUrl != "" {
			ar.Execute()
			if err := g.Execute(); err != nil {
				return
			}
		}
		go api.Listen()
		s.Run()
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func database(cfg config.Config) (*deepfile.DB, error) {
	kind := deepfile.TypeHash
	if cfg.DatabaseType == "list" {
		kind = deepfile.TypeArray
	}
	return deepfile.Open(deepfile.Config{
		File:      cfg.DatabaseFile,
		Type:      kind,
		Locking:   cfg.Locking,
		Autoflush: cfg.Autoflush,
	})
}

func entryRepository(db *deepfile.DB) domain.DbEntryRepository {
	return repository.NewDeepfileRepository(db)
}

func configServerClient(cfg config.Config) *client.ConfigServerClient {
	return client.NewConfigServerClient(cfg.ConfigServerUrl)
}
