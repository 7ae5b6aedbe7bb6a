package nats

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestNATSIntegration_ThreadFanout verifies a thread-appended
// notification published by one client reaches every subscriber.
func TestNATSIntegration_ThreadFanout(t *testing.T) {
	config := EmbeddedServerConfig{Port: 14300}
	server, err := NewEmbeddedServer(config)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Shutdown()

	subscriber, err := NewClient(server.URL())
	if err != nil {
		t.Fatalf("Failed to create subscriber client: %v", err)
	}
	defer subscriber.Close()

	publisher, err := NewClient(server.URL())
	if err != nil {
		t.Fatalf("Failed to create publisher client: %v", err)
	}
	defer publisher.Close()

	var received []ThreadAppendedMessage
	var mu sync.Mutex

	_, err = subscriber.Subscribe(SubjectAllThreads, func(msg *Message) {
		var m ThreadAppendedMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			t.Errorf("Failed to unmarshal thread message: %v", err)
			return
		}
		mu.Lock()
		received = append(received, m)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	for i := 0; i < 3; i++ {
		m := ThreadAppendedMessage{
			ProjectID: "demo", ThreadID: "thread-x", FromID: "agent-a",
			ToID: "agent-b", Type: "message", Timestamp: time.Now(),
		}
		subject := fmt.Sprintf(SubjectThreadAppended, "demo")
		if err := publisher.PublishJSON(subject, m); err != nil {
			t.Errorf("Failed to publish thread message: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	count := len(received)
	mu.Unlock()

	if count != 3 {
		t.Errorf("Expected 3 thread notifications, got %d", count)
	}
}

// TestNATSIntegration_MultipleProjects verifies yield notifications
// from concurrently-publishing projects all reach the subscriber.
func TestNATSIntegration_MultipleProjects(t *testing.T) {
	config := EmbeddedServerConfig{Port: 14302}
	server, err := NewEmbeddedServer(config)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Shutdown()

	subscriber, err := NewClient(server.URL())
	if err != nil {
		t.Fatalf("Failed to create subscriber client: %v", err)
	}
	defer subscriber.Close()

	counts := make(map[string]int)
	var mu sync.Mutex

	_, err = subscriber.Subscribe(SubjectAllYields, func(msg *Message) {
		var m YieldCreatedMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return
		}
		mu.Lock()
		counts[m.ProjectID]++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	var wg sync.WaitGroup
	projects := []string{"proj-a", "proj-b", "proj-c"}
	messagesPerProject := 10

	for _, p := range projects {
		wg.Add(1)
		go func(projectID string) {
			defer wg.Done()

			client, err := NewClient(server.URL())
			if err != nil {
				t.Errorf("Failed to create client for %s: %v", projectID, err)
				return
			}
			defer client.Close()

			subject := fmt.Sprintf(SubjectYieldCreated, projectID)
			for j := 0; j < messagesPerProject; j++ {
				m := YieldCreatedMessage{ProjectID: projectID, SackID: "sack-x", Timestamp: time.Now()}
				client.PublishJSON(subject, m)
				time.Sleep(10 * time.Millisecond)
			}
		}(p)
	}

	wg.Wait()
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	total := 0
	for _, c := range counts {
		total += c
	}
	seen := len(counts)
	mu.Unlock()

	expected := len(projects) * messagesPerProject
	if total != expected {
		t.Errorf("Expected %d total yield notifications, got %d", expected, total)
	}
	if seen != len(projects) {
		t.Errorf("Expected to see %d projects, saw %d", len(projects), seen)
	}
}
