package zmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime"

	"DPDB/internal/application/service"
	"DPDB/internal/platform/config"

	"github.com/go-zeromq/zmq4"
)

// ZmqApi serves the database over a set of REP sockets backed by a worker
// pool, one request/reply JSON message per operation.
type ZmqApi struct {
	sockets    []zmq4.Socket
	config     config.Config
	services   *Services
	ctx        context.Context
	cancel     context.CancelFunc
	workerPool chan Job
}

type Job struct {
	Request  *ApiRequest
	Response chan<- ApiResponse
	SocketID int
}

type Services struct {
	get    *service.GetEntryService
	set    *service.SaveEntryService
	delete *service.DeleteEntryService
}

const (
	SAVE   = "SAVE"
	GET    = "GET"
	DELETE = "DELETE"
)

func NewZmqApi(get *service.GetEntryService, set *service.SaveEntryService,
	delete *service.DeleteEntryService, conf config.Config) *ZmqApi {

	ctx, cancel := context.WithCancel(context.Background())

	numSockets := runtime.NumCPU()
	if numSockets > 16 {
		numSockets = 16
	}

	sockets := make([]zmq4.Socket, numSockets)
	for i := range sockets {
		sockets[i] = zmq4.NewRep(ctx)
	}

	return &ZmqApi{
		sockets: sockets,
		config:  conf,
		services: &Services{
			get:    get,
			set:    set,
			delete: delete,
		},
		ctx:        ctx,
		cancel:     cancel,
		workerPool: make(chan Job, 50000),
	}
}

func (z *ZmqApi) Listen() {
	address := fmt.Sprintf("tcp://*:%d", z.config.ZmqApiPort)

	for i, socket := range z.sockets {
		if err := socket.Listen(address); err != nil {
			log.Printf("Error binding socket %d: %v", i, err)
			continue
		}
	}

	numWorkers := runtime.NumCPU() * 4
	for i := 0; i < numWorkers; i++ {
		go z.workerRoutine(i)
	}

	log.Printf("ZMQ API listening on %s with %d sockets and %d workers",
		address, len(z.sockets), numWorkers)

	for i, socket := range z.sockets {
		go z.socketListener(i, socket)
	}

	<-z.ctx.Done()
	log.Println("Shutting down ZMQ API...")
}

func (z *ZmqApi) socketListener(socketID int, socket zmq4.Socket) {
	defer log.Printf("Socket listener %d shutdown", socketID)

	for {
		select {
		case <-z.ctx.Done():
			return
		default:
			msg, err := socket.Recv()
			if err != nil {
				if errors.Is(err, zmq4.ErrClosedConn) {
					return
				}
				log.Printf("Socket %d recv error: %v", socketID, err)
				continue
			}

			var req ApiRequest
			if err := json.Unmarshal(msg.Bytes(), &req); err != nil {
				log.Printf("Socket %d unmarshal error: %v", socketID, err)
				z.sendErrorResponse(socket)
				continue
			}

			respChan := make(chan ApiResponse, 1)
			job := Job{
				Request:  &req,
				Response: respChan,
				SocketID: socketID,
			}

			select {
			case z.workerPool <- job:
				response := <-respChan
				responseMsg := z.marshal(response)
				if err := socket.Send(responseMsg); err != nil {
					log.Printf("Socket %d send error: %v", socketID, err)
				}
			case <-z.ctx.Done():
				return
			default:
				// pool lleno, procesar directamente
				response := z.processRequest(&req)
				responseMsg := z.marshal(response)
				if err := socket.Send(responseMsg); err != nil {
					log.Printf("Socket %d send error: %v", socketID, err)
				}
			}
		}
	}
}

func (z *ZmqApi) workerRoutine(id int) {
	for {
		select {
		case job := <-z.workerPool:
			response := z.processRequest(job.Request)

			select {
			case job.Response <- response:
			default:
				log.Printf("Worker %d: failed to send response", id)
			}

		case <-z.ctx.Done():
			return
		}
	}
}

func (z *ZmqApi) processRequest(req *ApiRequest) ApiResponse {
	switch req.Action {
	case SAVE:
		result := z.services.set.Execute(service.SaveEntryCommand{
			Key:   req.Key,
			Value: req.Value,
		})
		if result.Err != nil {
			return ApiResponse{Success: false}
		}
		return ApiResponse{
			Entry: EntryResponse{
				Key:   result.Entry.Key(),
				Value: result.Entry.Value(),
			},
			Success: true,
		}

	case GET:
		result := z.services.get.Execute(service.GetEntryQuery{Key: req.Key})
		return ApiResponse{
			Entry: EntryResponse{
				Key:   result.Entry.Key(),
				Value: result.Entry.Value(),
			},
			Success: result.Found,
		}

	case DELETE:
		result := z.services.delete.Execute(service.DeleteEntryCommand{Key: req.Key})
		return ApiResponse{
			Entry: EntryResponse{
				Key:   result.Entry.Key(),
				Value: result.Entry.Value(),
			},
			Success: result.Err == nil,
		}

	default:
		log.Printf("Unknown action: %s", req.Action)
		return ApiResponse{Success: false}
	}
}

func (z *ZmqApi) sendErrorResponse(socket zmq4.Socket) {
	errorMsg := z.marshal(ApiResponse{Success: false})
	if err := socket.Send(errorMsg); err != nil {
		log.Printf("Error sending error response: %v", err)
	}
}

func (z *ZmqApi) marshal(response ApiResponse) zmq4.Msg {
	payload, err := json.Marshal(response)
	if err != nil {
		log.Printf("Error marshalling response: %v", err)
		payload = []byte(`{"success":false}`)
	}
	return zmq4.NewMsg(payload)
}

func (z *ZmqApi) Close() error {
	z.cancel()

	var lastErr error
	for i, socket := range z.sockets {
		if socket != nil {
			if err := socket.Close(); err != nil {
				log.Printf("Error closing socket %d: %v", i, err)
				lastErr = err
			}
		}
	}
	return lastErr
}
