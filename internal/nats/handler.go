package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// HandlerCallbacks are invoked as SKEIN fan-out notifications arrive
// from other processes subscribed to the same embedded NATS server.
type HandlerCallbacks struct {
	OnThreadAppended func(ThreadAppendedMessage)
	OnYieldCreated   func(YieldCreatedMessage)
	OnFolioUpdated   func(FolioUpdatedMessage)
}

// Handler subscribes to every SKEIN notification subject and delegates
// decoded payloads to callbacks. Adapted from the teacher's
// heartbeat/status/tool-call Handler: same subscribe-decode-delegate
// shape, generalized to the artifact-graph's own notification set.
type Handler struct {
	client    *Client
	callbacks HandlerCallbacks

	subs   []*Subscription
	subsMu sync.Mutex

	running bool
}

// NewHandler returns a Handler bound to client.
func NewHandler(client *Client, callbacks HandlerCallbacks) *Handler {
	return &Handler{client: client, callbacks: callbacks}
}

// Start subscribes to every notification subject.
func (h *Handler) Start() error {
	if h.running {
		return fmt.Errorf("handler already running")
	}
	h.running = true

	if sub, err := h.client.Subscribe(SubjectAllThreads, h.handleThread); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectAllThreads, err)
	} else {
		h.addSub(sub)
	}
	if sub, err := h.client.Subscribe(SubjectAllYields, h.handleYield); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectAllYields, err)
	} else {
		h.addSub(sub)
	}
	if sub, err := h.client.Subscribe(SubjectAllFolios, h.handleFolio); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectAllFolios, err)
	} else {
		h.addSub(sub)
	}

	log.Printf("[NATS-HANDLER] started, subscribed to %d subjects", len(h.subs))
	return nil
}

// Stop unsubscribes from every subject.
func (h *Handler) Stop() {
	if !h.running {
		return
	}
	h.subsMu.Lock()
	for _, sub := range h.subs {
		sub.Unsubscribe()
	}
	h.subs = nil
	h.subsMu.Unlock()
	h.running = false
	log.Printf("[NATS-HANDLER] stopped")
}

func (h *Handler) addSub(sub *Subscription) {
	h.subsMu.Lock()
	h.subs = append(h.subs, sub)
	h.subsMu.Unlock()
}

func (h *Handler) handleThread(msg *Message) {
	var m ThreadAppendedMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		log.Printf("[NATS-HANDLER] invalid thread message: %v", err)
		return
	}
	if h.callbacks.OnThreadAppended != nil {
		h.callbacks.OnThreadAppended(m)
	}
}

func (h *Handler) handleYield(msg *Message) {
	var m YieldCreatedMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		log.Printf("[NATS-HANDLER] invalid yield message: %v", err)
		return
	}
	if h.callbacks.OnYieldCreated != nil {
		h.callbacks.OnYieldCreated(m)
	}
}

func (h *Handler) handleFolio(msg *Message) {
	var m FolioUpdatedMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		log.Printf("[NATS-HANDLER] invalid folio message: %v", err)
		return
	}
	if h.callbacks.OnFolioUpdated != nil {
		h.callbacks.OnFolioUpdated(m)
	}
}
