package rpc

import (
	"context"
	"encoding/json"

	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
	coregrpc "github.com/msto63/mbasic/pkg/core/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler implements FrontendServer on top of the execution service
type Handler struct {
	service *service.Service
}

// NewHandler creates a new gRPC handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// Register adds the frontend service to srv and marks it serving
func Register(srv *coregrpc.Server, h *Handler) {
	srv.RegisterService(&ServiceDesc, h)
}

// Execute runs {"code": ...} and returns the execution document
func (h *Handler) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code, err := codeField(req)
	if err != nil {
		return nil, err
	}

	resp, err := h.service.Execute(withRequestID(ctx), store.OriginRPC, code)
	if err != nil {
		return nil, err
	}
	return toStruct(resp.Body())
}

// Tokenize lexes {"code": ...} and returns the token document
func (h *Handler) Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code, err := codeField(req)
	if err != nil {
		return nil, err
	}

	resp, err := h.service.Tokenize(withRequestID(ctx), code)
	if err != nil {
		return nil, err
	}
	return toStruct(resp)
}

// codeField reads the "code" field. A missing field is empty code.
func codeField(req *structpb.Struct) (string, error) {
	v, ok := req.GetFields()["code"]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Error(codes.InvalidArgument, "field 'code' must be a string")
	}
	return s.StringValue, nil
}

func withRequestID(ctx context.Context) context.Context {
	return service.WithRequestID(ctx, coregrpc.GetRequestID(ctx))
}

// toStruct converts a JSON-tagged value to a Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// fromStruct is the inverse of toStruct
func fromStruct(in *structpb.Struct, v interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
