package share

import (
	"context"
	"sync"
)

type FileAction struct {
	Filename string `json:"filename"`
	DataURI  string `json:"data_uri"`
}

type ShareAction struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	DataURI  string `json:"data_uri"`
}

// Actions is a Sink that records the steps for a remote client to carry out
// instead of performing them. The HTTP API returns it as JSON.
type Actions struct {
	mu sync.Mutex

	NativeShare bool `json:"-"`

	Download  *FileAction  `json:"download,omitempty"`
	Clipboard *string      `json:"clipboard,omitempty"`
	Share     *ShareAction `json:"share,omitempty"`
	Open      string       `json:"open_url,omitempty"`
	Notices   []string     `json:"notices,omitempty"`
}

// NewActions returns a recorder; nativeShare reports whether the client can
// share files natively.
func NewActions(nativeShare bool) *Actions {
	return &Actions{NativeShare: nativeShare}
}

func (a *Actions) SaveFile(_ context.Context, filename, dataURI string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Download = &FileAction{Filename: filename, DataURI: dataURI}
	return nil
}

func (a *Actions) WriteClipboard(_ context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Clipboard = &text
	return nil
}

func (a *Actions) CanShareFiles() bool {
	return a.NativeShare
}

func (a *Actions) ShareFiles(_ context.Context, p Payload) error {
	if !a.NativeShare {
		return ErrShareUnsupported
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Share = &ShareAction{Text: p.Text, Filename: p.Filename, DataURI: DataURI(p.PNG)}
	return nil
}

func (a *Actions) OpenURL(_ context.Context, rawURL string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Open = rawURL
	return nil
}

func (a *Actions) Notify(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Notices = append(a.Notices, msg)
}
