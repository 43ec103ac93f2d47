package wa

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mdp/qrterminal"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	walog "go.mau.fi/whatsmeow/util/log"
	_ "modernc.org/sqlite"
)

// Message is the part of an incoming WhatsApp event the bot cares about.
type Message struct {
	Chat     types.JID
	Sender   types.JID
	PushName string
	Text     string
	FromMe   bool
}

type MessageHandler func(ctx context.Context, msg Message)

// ReplyOptions paces replies so the bot reads like a person typing.
type ReplyOptions struct {
	DelayMinMs int
	DelayMaxMs int
	ShowTyping bool
}

type Service struct {
	client     *whatsmeow.Client
	dbBasePath string
	waLog      walog.Logger
	log        *log.Logger
	reply      ReplyOptions
	handler    MessageHandler
}

func NewService(dbBasePath string, waLogger walog.Logger, logger *log.Logger, reply ReplyOptions) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		dbBasePath: dbBasePath,
		waLog:      waLogger,
		log:        logger.WithPrefix("wa"),
		reply:      reply,
	}
}

func (s *Service) Initialize(ctx context.Context) error {
	// whatsmeow keeps its own connection pool on the same file; WAL mode sticks to the file.
	dbAddress := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", s.dbBasePath)
	container, err := sqlstore.New(ctx, "sqlite", dbAddress, s.waLog)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	devices, err := container.GetAllDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}

	var device *store.Device
	if len(devices) > 0 {
		device = devices[0]
	} else {
		device = container.NewDevice()
	}

	s.client = whatsmeow.NewClient(device, s.waLog)
	s.client.AddEventHandler(s.dispatch)
	return nil
}

func (s *Service) Connect() error {
	if s.client == nil {
		return fmt.Errorf("client not initialized")
	}
	if s.client.IsConnected() {
		return nil
	}
	return s.client.Connect()
}

func (s *Service) Disconnect() {
	if s.client != nil {
		s.client.Disconnect()
	}
}

func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.handler = handler
}

func (s *Service) dispatch(evt interface{}) {
	v, ok := evt.(*events.Message)
	if !ok || s.handler == nil {
		return
	}
	msg := Message{
		Chat:     v.Info.Chat,
		Sender:   v.Info.Sender,
		PushName: v.Info.PushName,
		Text:     messageText(v.Message),
		FromMe:   v.Info.IsFromMe,
	}
	if msg.Text == "" {
		return
	}
	go s.handler(context.Background(), msg)
}

func messageText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	if m.Conversation != nil {
		return *m.Conversation
	}
	if m.ExtendedTextMessage != nil && m.ExtendedTextMessage.Text != nil {
		return *m.ExtendedTextMessage.Text
	}
	return ""
}

// Reply sends text to chat after the configured delay.
func (s *Service) Reply(ctx context.Context, chat types.JID, text string) error {
	if delay := s.replyDelay(); delay > 0 {
		if s.reply.ShowTyping {
			_ = s.client.SendChatPresence(ctx, chat, types.ChatPresenceComposing, types.ChatPresenceMediaText)
		}
		s.log.Debug("delaying reply", "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if s.reply.ShowTyping {
			_ = s.client.SendChatPresence(ctx, chat, types.ChatPresencePaused, types.ChatPresenceMediaText)
		}
	}

	_, err := s.client.SendMessage(ctx, chat, &waE2E.Message{Conversation: &text})
	return err
}

func (s *Service) replyDelay() time.Duration {
	delayMs := s.reply.DelayMinMs
	if s.reply.DelayMaxMs > s.reply.DelayMinMs {
		delayMs = s.reply.DelayMinMs + rand.Intn(s.reply.DelayMaxMs-s.reply.DelayMinMs+1)
	}
	return time.Duration(delayMs) * time.Millisecond
}

func (s *Service) IsLoggedIn() bool {
	return s.client.Store.ID != nil
}

func (s *Service) Pair(ctx context.Context, phone string) (string, error) {
	if s.IsLoggedIn() {
		return "", fmt.Errorf("already logged in")
	}
	if !s.client.IsConnected() {
		return "", fmt.Errorf("client not connected")
	}
	return s.client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
}

// PrintQR connects and renders login QR codes until pairing ends.
func (s *Service) PrintQR(ctx context.Context) {
	if s.client.Store.ID != nil {
		return
	}
	qrChan, _ := s.client.GetQRChannel(ctx)
	if err := s.client.Connect(); err != nil {
		s.log.Error("failed to connect for QR", "err", err)
		return
	}
	for evt := range qrChan {
		if evt.Event == "code" {
			fmt.Println("QR Code:", evt.Code)
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		} else {
			s.log.Info("login event", "event", evt.Event)
		}
	}
}
