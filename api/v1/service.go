package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "mindcare.v1.WellnessService"

// Full method names, as seen by interceptors in info.FullMethod.
const (
	FullMethodRegister      = "/" + ServiceName + "/Register"
	FullMethodLogin         = "/" + ServiceName + "/Login"
	FullMethodGetProfile    = "/" + ServiceName + "/GetProfile"
	FullMethodUpdateProfile = "/" + ServiceName + "/UpdateProfile"
	FullMethodSendMessage   = "/" + ServiceName + "/SendMessage"
	FullMethodGetMessages   = "/" + ServiceName + "/GetMessages"
	FullMethodGetActiveChat = "/" + ServiceName + "/GetActiveChat"
	FullMethodEndChat       = "/" + ServiceName + "/EndChat"
	FullMethodMarkRead      = "/" + ServiceName + "/MarkRead"
	FullMethodSetTyping     = "/" + ServiceName + "/SetTyping"
	FullMethodSubscribe     = "/" + ServiceName + "/Subscribe"
	FullMethodGetHistory    = "/" + ServiceName + "/GetHistory"
)

// WellnessServiceServer is the server API for the wellness service.
type WellnessServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	GetMessages(context.Context, *GetMessagesRequest) (*GetMessagesResponse, error)
	GetActiveChat(context.Context, *GetActiveChatRequest) (*ChatResponse, error)
	EndChat(context.Context, *EndChatRequest) (*ChatResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error)
	SetTyping(context.Context, *SetTypingRequest) (*SetTypingResponse, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[Event]) error
	GetHistory(*GetHistoryRequest, grpc.ServerStreamingServer[Conversation]) error
}

// UnimplementedWellnessServiceServer can be embedded to get Unimplemented
// errors for methods a server does not provide.
type UnimplementedWellnessServiceServer struct{}

func (UnimplementedWellnessServiceServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedWellnessServiceServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedWellnessServiceServer) GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedWellnessServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedWellnessServiceServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedWellnessServiceServer) GetMessages(context.Context, *GetMessagesRequest) (*GetMessagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMessages not implemented")
}
func (UnimplementedWellnessServiceServer) GetActiveChat(context.Context, *GetActiveChatRequest) (*ChatResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetActiveChat not implemented")
}
func (UnimplementedWellnessServiceServer) EndChat(context.Context, *EndChatRequest) (*ChatResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method EndChat not implemented")
}
func (UnimplementedWellnessServiceServer) MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkRead not implemented")
}
func (UnimplementedWellnessServiceServer) SetTyping(context.Context, *SetTypingRequest) (*SetTypingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetTyping not implemented")
}
func (UnimplementedWellnessServiceServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[Event]) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}
func (UnimplementedWellnessServiceServer) GetHistory(*GetHistoryRequest, grpc.ServerStreamingServer[Conversation]) error {
	return status.Error(codes.Unimplemented, "method GetHistory not implemented")
}

// RegisterWellnessServiceServer registers srv on s.
func RegisterWellnessServiceServer(s grpc.ServiceRegistrar, srv WellnessServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed method into a grpc.MethodHandler, running the
// interceptor chain when one is installed.
func unary[Req, Resp any](fullMethod string, call func(WellnessServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WellnessServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WellnessServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// serverStream adapts a typed server-streaming method into a grpc.StreamHandler.
func serverStream[Req, Resp any](call func(WellnessServiceServer, *Req, grpc.ServerStreamingServer[Resp]) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(Req)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return call(srv.(WellnessServiceServer), in, &grpc.GenericServerStream[Req, Resp]{ServerStream: stream})
	}
}

// ServiceDesc describes mindcare.v1.WellnessService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WellnessServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(FullMethodRegister, WellnessServiceServer.Register)},
		{MethodName: "Login", Handler: unary(FullMethodLogin, WellnessServiceServer.Login)},
		{MethodName: "GetProfile", Handler: unary(FullMethodGetProfile, WellnessServiceServer.GetProfile)},
		{MethodName: "UpdateProfile", Handler: unary(FullMethodUpdateProfile, WellnessServiceServer.UpdateProfile)},
		{MethodName: "SendMessage", Handler: unary(FullMethodSendMessage, WellnessServiceServer.SendMessage)},
		{MethodName: "GetMessages", Handler: unary(FullMethodGetMessages, WellnessServiceServer.GetMessages)},
		{MethodName: "GetActiveChat", Handler: unary(FullMethodGetActiveChat, WellnessServiceServer.GetActiveChat)},
		{MethodName: "EndChat", Handler: unary(FullMethodEndChat, WellnessServiceServer.EndChat)},
		{MethodName: "MarkRead", Handler: unary(FullMethodMarkRead, WellnessServiceServer.MarkRead)},
		{MethodName: "SetTyping", Handler: unary(FullMethodSetTyping, WellnessServiceServer.SetTyping)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: serverStream(WellnessServiceServer.Subscribe), ServerStreams: true},
		{StreamName: "GetHistory", Handler: serverStream(WellnessServiceServer.GetHistory), ServerStreams: true},
	},
}
