package emailsvc

import (
	"sync"

	"github.com/orbitaplataforma/orbita/core"
)

// MockService renders messages synchronously and keeps them for assertions in tests.
type MockService struct {
	conf *core.Config

	mu       sync.Mutex
	messages []core.EmailMessage
}

var _ core.EmailService = (*MockService)(nil)

func NewMockService(conf *core.Config) *MockService {
	return &MockService{conf: conf}
}

func (svc *MockService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(svc.conf); err != nil {
			panic(err) // templates are embedded: a render error is a bug
		}
		if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
			svc.mu.Lock()
			svc.messages = append(svc.messages, *msg)
			svc.mu.Unlock()
		}
	}
}

// SentMessages returns a copy of the messages sent so far.
func (svc *MockService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.messages...)
}

func (svc *MockService) Reset() {
	svc.mu.Lock()
	svc.messages = nil
	svc.mu.Unlock()
}
