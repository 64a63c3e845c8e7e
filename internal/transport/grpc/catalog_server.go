package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/catalog"
)

type catalogService interface {
	CreateProvider(ctx context.Context, in catalog.ProviderInput) (domain.Provider, error)
	GetProvider(ctx context.Context, providerID int64) (domain.Provider, error)
	UpdateProvider(ctx context.Context, providerID int64, in catalog.ProviderInput) (domain.Provider, error)

	CreateRule(ctx context.Context, providerID int64, in catalog.RuleInput) (domain.AvailabilityRule, error)
	ListRules(ctx context.Context, providerID int64) ([]domain.AvailabilityRule, error)
	UpdateRule(ctx context.Context, providerID, ruleID int64, in catalog.RuleInput) (domain.AvailabilityRule, error)
	DeleteRule(ctx context.Context, providerID, ruleID int64) error

	CreateTimeBlock(ctx context.Context, providerID int64, in catalog.TimeBlockInput) (domain.TimeBlock, error)
	ListTimeBlocks(ctx context.Context, providerID int64, from, to time.Time) ([]domain.TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, providerID, blockID int64) error

	CreateService(ctx context.Context, providerID int64, in catalog.ServiceInput) (domain.Service, error)
	GetService(ctx context.Context, serviceID int64) (domain.Service, error)
	ListServices(ctx context.Context, providerID int64, includeInactive bool) ([]domain.Service, error)
	UpdateService(ctx context.Context, providerID, serviceID int64, in catalog.ServiceInput) (domain.Service, error)
	DeleteService(ctx context.Context, providerID, serviceID int64) error
}

type CatalogServer struct {
	svc catalogService
	log *slog.Logger
}

func NewCatalogServer(svc catalogService, log *slog.Logger) *CatalogServer {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.catalog")),
	}
}

func (s *CatalogServer) rpcLogger(ctx context.Context, rpc string) *slog.Logger {
	log := s.log.With(slog.String("rpc", rpc))
	if id := RequestIDFromContext(ctx); id != "" {
		log = log.With(slog.String("request_id", id))
	}
	return log
}

var errNilRequest = status.Error(codes.InvalidArgument, "request is required")

func (s *CatalogServer) CreateProvider(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error) {
	log := s.rpcLogger(ctx, "CreateProvider")
	if req == nil {
		return nil, errNilRequest
	}
	p, err := s.svc.CreateProvider(ctx, req.ProviderInput)
	if err != nil {
		return nil, toStatus(log, err)
	}
	return &ProviderResponse{Provider: toProvider(p)}, nil
}

func (s *CatalogServer) GetProvider(ctx context.Context, req *GetProviderRequest) (*ProviderResponse, error) {
	log := s.rpcLogger(ctx, "GetProvider")
	if req == nil {
		return nil, errNilRequest
	}
	p, err := s.svc.GetProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	return &ProviderResponse{Provider: toProvider(p)}, nil
}

func (s *CatalogServer) UpdateProvider(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error) {
	log := s.rpcLogger(ctx, "UpdateProvider")
	if req == nil {
		return nil, errNilRequest
	}
	p, err := s.svc.UpdateProvider(ctx, req.ProviderID, req.ProviderInput)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	return &ProviderResponse{Provider: toProvider(p)}, nil
}

func (s *CatalogServer) CreateRule(ctx context.Context, req *RuleRequest) (*RuleResponse, error) {
	log := s.rpcLogger(ctx, "CreateRule")
	if req == nil {
		return nil, errNilRequest
	}
	r, err := s.svc.CreateRule(ctx, req.ProviderID, req.RuleInput)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	return &RuleResponse{Rule: toRule(r)}, nil
}

func (s *CatalogServer) ListRules(ctx context.Context, req *ListRulesRequest) (*ListRulesResponse, error) {
	log := s.rpcLogger(ctx, "ListRules")
	if req == nil {
		return nil, errNilRequest
	}
	rules, err := s.svc.ListRules(ctx, req.ProviderID)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRule(r))
	}
	return &ListRulesResponse{Rules: out}, nil
}

func (s *CatalogServer) UpdateRule(ctx context.Context, req *RuleRequest) (*RuleResponse, error) {
	log := s.rpcLogger(ctx, "UpdateRule")
	if req == nil {
		return nil, errNilRequest
	}
	r, err := s.svc.UpdateRule(ctx, req.ProviderID, req.RuleID, req.RuleInput)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID), slog.Int64("rule_id", req.RuleID)), err)
	}
	return &RuleResponse{Rule: toRule(r)}, nil
}

func (s *CatalogServer) DeleteRule(ctx context.Context, req *DeleteRequest) (*Empty, error) {
	log := s.rpcLogger(ctx, "DeleteRule")
	if req == nil {
		return nil, errNilRequest
	}
	if err := s.svc.DeleteRule(ctx, req.ProviderID, req.ID); err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID), slog.Int64("rule_id", req.ID)), err)
	}
	return &Empty{}, nil
}

func (s *CatalogServer) CreateTimeBlock(ctx context.Context, req *TimeBlockRequest) (*TimeBlockResponse, error) {
	log := s.rpcLogger(ctx, "CreateTimeBlock")
	if req == nil {
		return nil, errNilRequest
	}
	b, err := s.svc.CreateTimeBlock(ctx, req.ProviderID, req.TimeBlockInput)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	return &TimeBlockResponse{TimeBlock: toTimeBlock(b)}, nil
}

func (s *CatalogServer) ListTimeBlocks(ctx context.Context, req *ListTimeBlocksRequest) (*ListTimeBlocksResponse, error) {
	log := s.rpcLogger(ctx, "ListTimeBlocks")
	if req == nil {
		return nil, errNilRequest
	}
	blocks, err := s.svc.ListTimeBlocks(ctx, req.ProviderID, req.From, req.To)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	out := make([]TimeBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toTimeBlock(b))
	}
	return &ListTimeBlocksResponse{TimeBlocks: out}, nil
}

func (s *CatalogServer) DeleteTimeBlock(ctx context.Context, req *DeleteRequest) (*Empty, error) {
	log := s.rpcLogger(ctx, "DeleteTimeBlock")
	if req == nil {
		return nil, errNilRequest
	}
	if err := s.svc.DeleteTimeBlock(ctx, req.ProviderID, req.ID); err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID), slog.Int64("block_id", req.ID)), err)
	}
	return &Empty{}, nil
}

func (s *CatalogServer) CreateService(ctx context.Context, req *ServiceRequest) (*ServiceResponse, error) {
	log := s.rpcLogger(ctx, "CreateService")
	if req == nil {
		return nil, errNilRequest
	}
	svc, err := s.svc.CreateService(ctx, req.ProviderID, req.ServiceInput)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	return &ServiceResponse{Service: toService(svc)}, nil
}

func (s *CatalogServer) GetService(ctx context.Context, req *GetServiceRequest) (*ServiceResponse, error) {
	log := s.rpcLogger(ctx, "GetService")
	if req == nil {
		return nil, errNilRequest
	}
	svc, err := s.svc.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("service_id", req.ServiceID)), err)
	}
	return &ServiceResponse{Service: toService(svc)}, nil
}

func (s *CatalogServer) ListServices(ctx context.Context, req *ListServicesRequest) (*ListServicesResponse, error) {
	log := s.rpcLogger(ctx, "ListServices")
	if req == nil {
		return nil, errNilRequest
	}
	services, err := s.svc.ListServices(ctx, req.ProviderID, req.IncludeInactive)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID)), err)
	}
	out := make([]Service, 0, len(services))
	for _, svc := range services {
		out = append(out, toService(svc))
	}
	return &ListServicesResponse{Services: out}, nil
}

func (s *CatalogServer) UpdateService(ctx context.Context, req *ServiceRequest) (*ServiceResponse, error) {
	log := s.rpcLogger(ctx, "UpdateService")
	if req == nil {
		return nil, errNilRequest
	}
	svc, err := s.svc.UpdateService(ctx, req.ProviderID, req.ServiceID, req.ServiceInput)
	if err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID), slog.Int64("service_id", req.ServiceID)), err)
	}
	return &ServiceResponse{Service: toService(svc)}, nil
}

func (s *CatalogServer) DeleteService(ctx context.Context, req *DeleteRequest) (*Empty, error) {
	log := s.rpcLogger(ctx, "DeleteService")
	if req == nil {
		return nil, errNilRequest
	}
	if err := s.svc.DeleteService(ctx, req.ProviderID, req.ID); err != nil {
		return nil, toStatus(log.With(slog.Int64("provider_id", req.ProviderID), slog.Int64("service_id", req.ID)), err)
	}
	return &Empty{}, nil
}
