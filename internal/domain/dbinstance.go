package domain

import "github.com/google/uuid"

type DbInstance struct {
	Id   string `json:"id,omitempty"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

func NewDbInstance(host string, port int) DbInstance {
	return DbInstance{
		Id:   uuid.NewString(),
		Host: host,
		Port: port,
	}
}

type DbInstanceRepository interface {
	FindAll() []DbInstance
	SaveAll(instances *[]DbInstance) []DbInstance
}
