package service

import (
	"log"
	"net"
	"time"

	"DPDB/internal/domain"
	"DPDB/internal/platform/client"
	"DPDB/internal/platform/config"
)

type InstanceAutoRegisterService struct {
	configServer    *client.ConfigServerClient
	instanceManager *domain.DbInstanceManager
	config          config.Config
}

func NewInstanceAutoRegisterService(configServer *client.ConfigServerClient, instanceManager *domain.DbInstanceManager,
	config config.Config) *InstanceAutoRegisterService {

	return &InstanceAutoRegisterService{
		configServer:    configServer,
		instanceManager: instanceManager,
		config:          config,
	}
}

func (i *InstanceAutoRegisterService) Execute() {
	ip := i.getOutboundIP()
	instance := domain.NewDbInstance(ip, i.config.ServerPort)

	ticker := time.NewTicker(time.Second * 60)
	defer ticker.Stop()

	for {
		registeredInstance, err := i.configServer.RegisterInstance(instance)
		if err == nil {
			i.instanceManager.SetCurrentInstance(registeredInstance)
			log.Printf("Registered current instance with id %s\n", registeredInstance.Id)
			break
		}
		log.Printf("Failed to register instance: %v. Retrying in 60s...\n", err)
		<-ticker.C
	}
}

func (i *InstanceAutoRegisterService) getOutboundIP() string {
	if i.config.DeploymentMode == "devel" {
		return "localhost"
	}
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP.String()
}
