package server

import (
	"google.golang.org/grpc"
)

// RegisterProgramService registers the program service with the provided gRPC server
func RegisterProgramService(registrar grpc.ServiceRegistrar, service ProgramServer) {
	registrar.RegisterService(&ProgramServiceDesc, service)
}
