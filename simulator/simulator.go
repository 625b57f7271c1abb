package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SimConfig struct {
	NumUsers         int
	SimulationTime   time.Duration
	MessageFrequency float64 // messages per user per minute
	ReadFrequency    float64 // thread fetches per user per minute
	PollFrequency    float64 // unread-count polls per user per minute
	ZipfS            float64
	APIBaseURL       string
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	TotalMessages    int
	TotalReads       int
	TotalPolls       int
	RequestLatencies []time.Duration
}

// SimulatedUser tracks a registered account and the peers it talks to
type SimulatedUser struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Token    string
	Contacts []uuid.UUID
}

type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	users  []*SimulatedUser
	client *http.Client
	mu     sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting messaging simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Phase 1: Creating %d users...", s.config.NumUsers)
	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("failed to create initial users: %v", err)
	}

	log.Printf("Phase 2: Assigning contact graphs...")
	s.assignContacts()

	log.Printf("Initialization completed with %d users", len(s.users))
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)

	numWorkers := 5
	userJobs := make(chan int, numWorkers)
	results := make(chan *SimulatedUser, numWorkers)

	var wg sync.WaitGroup

	// Shared rate limiter keeps registration below 5 requests per second
	rateLimiter := time.NewTicker(200 * time.Millisecond)
	defer rateLimiter.Stop()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			client := &http.Client{Timeout: 5 * time.Second}

			for userNum := range userJobs {
				<-rateLimiter.C

				user := &SimulatedUser{
					Name:  fmt.Sprintf("sim_user_%d", userNum),
					Email: fmt.Sprintf("sim_user_%d@test.com", userNum),
				}

				var err error
				for retries := 0; retries < 3; retries++ {
					if err = s.registerAndLogin(ctx, user, client); err == nil {
						results <- user
						break
					}
					backoff := time.Duration(math.Pow(2, float64(retries))) * time.Second
					log.Printf("Worker %d: retry %d for user %s after %v",
						workerID, retries+1, user.Name, backoff)
					time.Sleep(backoff)
				}
				if err != nil {
					log.Printf("Worker %d: failed to register user %s: %v", workerID, user.Name, err)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < s.config.NumUsers; i++ {
			userJobs <- i
		}
		close(userJobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for user := range results {
		s.users = append(s.users, user)
		if len(s.users)%10 == 0 {
			log.Printf("Progress: %d/%d users created", len(s.users), s.config.NumUsers)
		}
	}

	log.Printf("Successfully created %d users", len(s.users))
	return nil
}

// registerAndLogin creates the account and stores the bearer token the
// activity loops will authenticate with
func (s *Simulator) registerAndLogin(ctx context.Context, user *SimulatedUser, client *http.Client) error {
	registerData := map[string]interface{}{
		"name":     user.Name,
		"email":    user.Email,
		"password": "testpass123",
		"college":  "Simulation",
	}

	if _, err := s.makeRequestWithClient(client, http.MethodPost, "/api/users/register", "", registerData); err != nil {
		return fmt.Errorf("failed to register user: %v", err)
	}

	loginData := map[string]interface{}{
		"email":    user.Email,
		"password": "testpass123",
	}
	resp, err := s.makeRequestWithClient(client, http.MethodPost, "/api/users/login", "", loginData)
	if err != nil {
		return fmt.Errorf("failed to login user: %v", err)
	}

	var login struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(resp, &login); err != nil {
		return fmt.Errorf("failed to parse login response: %v", err)
	}

	userID, err := uuid.Parse(login.UserID)
	if err != nil {
		return fmt.Errorf("invalid user ID returned: %v", err)
	}

	user.ID = userID
	user.Token = login.Token
	return nil
}

// makeRequest unwraps the API's JSON envelope and returns the data payload
func (s *Simulator) makeRequest(method, endpoint, token string, data interface{}) ([]byte, error) {
	return s.makeRequestWithClient(s.client, method, endpoint, token, data)
}

func (s *Simulator) makeRequestWithClient(client *http.Client, method, endpoint, token string, data interface{}) ([]byte, error) {
	var body []byte
	var err error

	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, s.config.APIBaseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	s.recordRequestMetrics(start, err)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, raw)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %v", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("request rejected: %s", envelope.Message)
	}
	return envelope.Data, nil
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}

			log.Printf("\nSimulation Metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request Rate: %.2f req/sec", requestRate)
			log.Printf("- Success Rate: %.1f%%", successRate)
			log.Printf("- Average Latency: %v", s.stats.AverageLatency)
			log.Printf("- Messages Sent: %d", s.stats.TotalMessages)
			log.Printf("- Threads Read: %d", s.stats.TotalReads)
			log.Printf("- Unread Polls: %d", s.stats.TotalPolls)
			log.Printf("- Failed Requests: %d", s.stats.FailedRequests)
			s.stats.mu.RUnlock()
		}
	}
}

// SimulationMetrics holds the final metrics of a simulation run
type SimulationMetrics struct {
	TotalUsers        int
	TotalMessages     int
	TotalReads        int
	TotalPolls        int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

func (s *Simulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()

	return SimulationMetrics{
		TotalUsers:        len(s.users),
		TotalMessages:     s.stats.TotalMessages,
		TotalReads:        s.stats.TotalReads,
		TotalPolls:        s.stats.TotalPolls,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: requestRate,
	}
}
