package simulator

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

var messagePool = []string{
	"hey, are you free to work on the project?",
	"did you see the new assignment?",
	"I pushed my changes, can you review?",
	"want to meet at the library later?",
	"thanks for the help yesterday!",
	"can you share those notes?",
	"the demo is on Friday, right?",
	"I found a bug in the parser, looking into it",
	"let's sync up tomorrow morning",
	"nice work on the presentation",
}

// assignContacts gives each user a contact list skewed by a Zipf
// distribution, so a few users receive most of the traffic the way a few
// popular students do on the real platform.
func (s *Simulator) assignContacts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.users) < 2 {
		return
	}

	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		s.config.ZipfS, 1, uint64(len(s.users)-1))

	for _, user := range s.users {
		numContacts := int(zipf.Uint64())%5 + 1
		seen := map[uuid.UUID]bool{user.ID: true}
		for len(user.Contacts) < numContacts {
			peer := s.users[rand.Intn(len(s.users))]
			if seen[peer.ID] {
				continue
			}
			seen[peer.ID] = true
			user.Contacts = append(user.Contacts, peer.ID)
		}
	}
}

func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateMessageSends(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateThreadReads(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateUnreadPolls(ctx)
	}()

	wg.Wait()
	return nil
}

// perUserInterval converts an events-per-user-per-minute rate into a tick
// interval for the whole population
func (s *Simulator) perUserInterval(frequency float64) time.Duration {
	if frequency <= 0 || len(s.users) == 0 {
		return time.Second
	}
	perSecond := frequency * float64(len(s.users)) / 60.0
	if perSecond <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / perSecond)
}

func (s *Simulator) simulateMessageSends(ctx context.Context) {
	ticker := time.NewTicker(s.perUserInterval(s.config.MessageFrequency))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sender := s.randomUser()
			if sender == nil || len(sender.Contacts) == 0 {
				continue
			}
			receiverID := sender.Contacts[rand.Intn(len(sender.Contacts))]
			content := messagePool[rand.Intn(len(messagePool))]

			endpoint := fmt.Sprintf("/api/messages/send/%s", receiverID)
			if _, err := s.makeRequest("POST", endpoint, sender.Token,
				map[string]string{"content": content}); err != nil {
				log.Printf("Failed to send message: %v", err)
				continue
			}

			s.stats.mu.Lock()
			s.stats.TotalMessages++
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) simulateThreadReads(ctx context.Context) {
	ticker := time.NewTicker(s.perUserInterval(s.config.ReadFrequency))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reader := s.randomUser()
			if reader == nil || len(reader.Contacts) == 0 {
				continue
			}
			otherID := reader.Contacts[rand.Intn(len(reader.Contacts))]

			endpoint := fmt.Sprintf("/api/messages/conversation/%s", otherID)
			if _, err := s.makeRequest("GET", endpoint, reader.Token, nil); err != nil {
				log.Printf("Failed to read thread: %v", err)
				continue
			}

			s.stats.mu.Lock()
			s.stats.TotalReads++
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) simulateUnreadPolls(ctx context.Context) {
	ticker := time.NewTicker(s.perUserInterval(s.config.PollFrequency))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			user := s.randomUser()
			if user == nil {
				continue
			}

			if _, err := s.makeRequest("GET", "/api/messages/unread-count", user.Token, nil); err != nil {
				log.Printf("Failed to poll unread count: %v", err)
				continue
			}

			s.stats.mu.Lock()
			s.stats.TotalPolls++
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) randomUser() *SimulatedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.users) == 0 {
		return nil
	}
	return s.users[rand.Intn(len(s.users))]
}
