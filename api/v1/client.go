package v1

import (
	"context"

	"google.golang.org/grpc"
)

// WellnessServiceClient is the client API for the wellness service. Every call
// uses the JSON codec.
type WellnessServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	GetMessages(ctx context.Context, in *GetMessagesRequest, opts ...grpc.CallOption) (*GetMessagesResponse, error)
	GetActiveChat(ctx context.Context, in *GetActiveChatRequest, opts ...grpc.CallOption) (*ChatResponse, error)
	EndChat(ctx context.Context, in *EndChatRequest, opts ...grpc.CallOption) (*ChatResponse, error)
	MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error)
	SetTyping(ctx context.Context, in *SetTypingRequest, opts ...grpc.CallOption) (*SetTypingResponse, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error)
	GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Conversation], error)
}

type wellnessServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewWellnessServiceClient(cc grpc.ClientConnInterface) WellnessServiceClient {
	return &wellnessServiceClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func openStream[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, method string, in *Req, opts []grpc.CallOption) (grpc.ServerStreamingClient[Resp], error) {
	stream, err := cc.NewStream(ctx, desc, method, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[Req, Resp]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *wellnessServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, FullMethodRegister, in, opts)
}

func (c *wellnessServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, FullMethodLogin, in, opts)
}

func (c *wellnessServiceClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, FullMethodGetProfile, in, opts)
}

func (c *wellnessServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, FullMethodUpdateProfile, in, opts)
}

func (c *wellnessServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, FullMethodSendMessage, in, opts)
}

func (c *wellnessServiceClient) GetMessages(ctx context.Context, in *GetMessagesRequest, opts ...grpc.CallOption) (*GetMessagesResponse, error) {
	return invoke[GetMessagesResponse](ctx, c.cc, FullMethodGetMessages, in, opts)
}

func (c *wellnessServiceClient) GetActiveChat(ctx context.Context, in *GetActiveChatRequest, opts ...grpc.CallOption) (*ChatResponse, error) {
	return invoke[ChatResponse](ctx, c.cc, FullMethodGetActiveChat, in, opts)
}

func (c *wellnessServiceClient) EndChat(ctx context.Context, in *EndChatRequest, opts ...grpc.CallOption) (*ChatResponse, error) {
	return invoke[ChatResponse](ctx, c.cc, FullMethodEndChat, in, opts)
}

func (c *wellnessServiceClient) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, FullMethodMarkRead, in, opts)
}

func (c *wellnessServiceClient) SetTyping(ctx context.Context, in *SetTypingRequest, opts ...grpc.CallOption) (*SetTypingResponse, error) {
	return invoke[SetTypingResponse](ctx, c.cc, FullMethodSetTyping, in, opts)
}

func (c *wellnessServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error) {
	return openStream[SubscribeRequest, Event](ctx, c.cc, &ServiceDesc.Streams[0], FullMethodSubscribe, in, opts)
}

func (c *wellnessServiceClient) GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Conversation], error) {
	return openStream[GetHistoryRequest, Conversation](ctx, c.cc, &ServiceDesc.Streams[1], FullMethodGetHistory, in, opts)
}
