package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "moviecatalog.v1.Catalog"

// CatalogServer is the server API for the Catalog service. Every message is
// a google.protobuf.Struct carrying the same fields as the JSON API.
type CatalogServer interface {
	ListMovies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMovie(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGenres(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddMovie(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddReview(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFunc func(CatalogServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unaryMethod(name string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CatalogServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CatalogServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ListMovies", CatalogServer.ListMovies),
		unaryMethod("GetMovie", CatalogServer.GetMovie),
		unaryMethod("ListGenres", CatalogServer.ListGenres),
		unaryMethod("AddMovie", CatalogServer.AddMovie),
		unaryMethod("AddReview", CatalogServer.AddReview),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "moviecatalog/v1/catalog.proto",
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

// Client calls the Catalog service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMovies(ctx context.Context, q, genre string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListMovies", map[string]any{"q": q, "genre": genre}, opts...)
}

func (c *Client) GetMovie(ctx context.Context, id int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetMovie", map[string]any{"id": id}, opts...)
}

func (c *Client) ListGenres(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListGenres", map[string]any{}, opts...)
}

// AddMovie sends fields as given; year may be a number or a string.
func (c *Client) AddMovie(ctx context.Context, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "AddMovie", fields, opts...)
}

func (c *Client) AddReview(ctx context.Context, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "AddReview", fields, opts...)
}
