package grpc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/sirupsen/logrus"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName    = "orgcontributors.Contributors"
	loadMethod     = "/" + serviceName + "/Load"
	variantsMethod = "/" + serviceName + "/Variants"
)

// Service launches contributors loading jobs.
type Service interface {
	Load(
		ctx context.Context,
		v app.Variant,
		spec app.RequestSpec,
		onUpdate app.UpdateFunc,
		controls app.Controls,
	) (*app.Handle, error)
}

// ContributorsServer is the server API of the contributors service.
type ContributorsServer interface {
	Load(req *structpb.Struct, stream grpc.ServerStream) error
	Variants(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
}

// ServiceDesc describes the contributors service. Messages are protobuf well known types:
//
//	rpc Load(google.protobuf.Struct) returns (stream google.protobuf.Struct)
//	rpc Variants(google.protobuf.Empty) returns (google.protobuf.ListValue)
//
// Load request has string fields "org" and "variant". Every reply has fields
// "completed", "status" and "contributors", a list of {"login", "contributions"}.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ContributorsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Variants",
			Handler:    variantsHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Load",
			Handler:       loadHandler,
			ServerStreams: true,
		},
	},
	Metadata: "orgcontributors/contributors.proto",
}

func loadHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(ContributorsServer).Load(req, stream)
}

func variantsHandler(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	req := new(emptypb.Empty)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContributorsServer).Variants(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: variantsMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ContributorsServer).Variants(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, req, info, handler)
}

// Handler implements ContributorsServer on top of the app service.
type Handler struct {
	service        Service
	defaultVariant app.Variant
	timeout        time.Duration
	l              logrus.FieldLogger
}

// NewHandler creates new Handler instance.
// Jobs are canceled after timeout, zero timeout means no limit.
func NewHandler(service Service, defaultVariant app.Variant, timeout time.Duration, l logrus.FieldLogger) *Handler {
	return &Handler{
		service:        service,
		defaultVariant: defaultVariant,
		timeout:        timeout,
		l:              l,
	}
}

// Load launches a job and sends a reply for every job update.
// Job is canceled when the client goes away or on timeout.
func (h *Handler) Load(req *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	v := h.defaultVariant
	if name := req.GetFields()["variant"].GetStringValue(); name != "" {
		var err error
		if v, err = app.ParseVariant(name); err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	spec := app.RequestSpec{
		Org:         req.GetFields()["org"].GetStringValue(),
		Credentials: credentialsFromContext(ctx),
	}

	var (
		handle  *app.Handle
		sendErr error
	)
	// Updates are serialized by the job.
	updates := app.NewStatusUpdates(func(contributors []app.Contributor, s app.Status) {
		if sendErr != nil {
			return
		}
		reply, err := newReply(Reply{
			Completed:    s.State == app.Completed,
			Status:       s.String(),
			Contributors: contributors,
		})
		if err == nil {
			err = stream.SendMsg(reply)
		}
		if err != nil {
			sendErr = err
			handle.Cancel()
		}
	})

	handle, err := h.service.Load(ctx, v, spec, updates.OnUpdate, nil)
	if err != nil {
		if app.IsInvalidRequestError(err) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		h.l.WithError(err).Error("loading contributors")
		return status.Error(codes.Internal, "loading contributors failed")
	}
	updates.Bind(handle)

	s := handle.Wait()
	if sendErr != nil {
		return sendErr
	}
	if s.State == app.Completed {
		return nil
	}
	if ctx.Err() != nil {
		return status.FromContextError(ctx.Err()).Err()
	}
	return status.Error(codes.Canceled, s.String())
}

// Variants lists names of available loading strategies.
func (h *Handler) Variants(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	names := make([]interface{}, 0, len(app.Variants()))
	for _, v := range app.Variants() {
		names = append(names, v.String())
	}

	return structpb.NewList(names)
}

// Reply is a single update of a loading job.
type Reply struct {
	Completed    bool
	Status       string
	Contributors []app.Contributor
}

func newReply(r Reply) (*structpb.Struct, error) {
	contributors := make([]interface{}, 0, len(r.Contributors))
	for _, c := range r.Contributors {
		contributors = append(contributors, map[string]interface{}{
			"login":         c.Login,
			"contributions": c.Contributions,
		})
	}

	return structpb.NewStruct(map[string]interface{}{
		"completed":    r.Completed,
		"status":       r.Status,
		"contributors": contributors,
	})
}

func parseReply(msg *structpb.Struct) (Reply, error) {
	fields := msg.GetFields()
	r := Reply{
		Completed: fields["completed"].GetBoolValue(),
		Status:    fields["status"].GetStringValue(),
	}
	list, ok := fields["contributors"].GetKind().(*structpb.Value_ListValue)
	if !ok {
		return Reply{}, errors.New("reply without contributors list")
	}
	for i, item := range list.ListValue.GetValues() {
		c := item.GetStructValue().GetFields()
		login := c["login"].GetStringValue()
		if login == "" {
			return Reply{}, fmt.Errorf("contributor %d without login", i)
		}
		r.Contributors = append(r.Contributors, app.Contributor{
			Login:         login,
			Contributions: int(c["contributions"].GetNumberValue()),
		})
	}

	return r, nil
}

// credentialsFromContext reads basic auth credentials from "authorization" metadata.
// Missing or malformed value means server credentials are used.
func credentialsFromContext(ctx context.Context) app.Credentials {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return app.Credentials{}
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return app.Credentials{}
	}

	const prefix = "basic "
	auth := values[0]
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return app.Credentials{}
	}
	decoded, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return app.Credentials{}
	}
	user, token, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return app.Credentials{}
	}

	return app.Credentials{
		Username: user,
		Token:    token,
	}
}

func basicAuth(c app.Credentials) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Token))
}
