package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle is the car a simulated customer brings in.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

var vehicles = []Vehicle{
	{Make: "Toyota", Model: "Corolla"},
	{Make: "Ford", Model: "Focus"},
	{Make: "Honda", Model: "Civic"},
	{Make: "BMW", Model: "320i"},
	{Make: "Tesla", Model: "Model 3"},
	{Make: "Volkswagen", Model: "Golf"},
}

var services = []struct {
	Type, Description, Update, Part string
}{
	{"brakes", "grinding noise when braking", "replaced brake pads", "brake pad"},
	{"oil_change", "oil change due", "changed oil and filter", "oil filter"},
	{"tires", "uneven tire wear", "rotated and balanced tires", "valve stem"},
	{"battery", "car will not start on cold mornings", "replaced battery", "battery"},
}

// Client talks to the service center API as one user.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func newClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// call sends body as JSON and decodes the JSON response into out when it is
// not nil. Responses outside 2xx become errors carrying the API's message.
func (c *Client) call(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	req, err := http.NewRequest(method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// signup registers a user with role, tolerating an existing account, logs
// in and returns the user's id.
func (c *Client) signup(role, name, email, password string) (string, error) {
	creds := map[string]string{"name": name, "email": email, "password": password}
	if err := c.call(http.MethodPost, "/"+role+"/register", creds, nil); err != nil && !strings.Contains(err.Error(), "status 409") {
		return "", err
	}
	var login struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := c.call(http.MethodPost, "/"+role+"/login", creds, &login); err != nil {
		return "", err
	}
	if login.AccessToken == "" {
		return "", fmt.Errorf("login as %s returned no token", email)
	}
	c.Token = login.AccessToken
	return login.User.ID, nil
}

// Crew is the staff every simulated ticket passes through.
type Crew struct {
	Admin     *Client
	Mechanics map[string]*Client // by user id
}

type serviceRequest struct {
	ID         string `json:"id"`
	MechanicID string `json:"mechanic_id"`
}

// runTicket takes one customer's ticket from scheduling to payment.
func runTicket(customer *Client, crew *Crew, rng *rand.Rand, amount float64) error {
	v := vehicles[rng.Intn(len(vehicles))]
	v.Year = 2012 + rng.Intn(13)
	svc := services[rng.Intn(len(services))]

	var created struct {
		ServiceRequest serviceRequest `json:"service_request"`
	}
	err := customer.call(http.MethodPost, "/customer/schedule_service", map[string]interface{}{
		"service_type": svc.Type,
		"description":  svc.Description,
		"vehicle":      v,
	}, &created)
	if err != nil {
		return err
	}
	id := created.ServiceRequest.ID
	logger := log.WithFields(log.Fields{
		"request_id":  id,
		"mechanic_id": created.ServiceRequest.MechanicID,
		"vehicle":     v.Make + " " + v.Model,
	})
	logger.Info("Service scheduled")

	mechanic, ok := crew.Mechanics[created.ServiceRequest.MechanicID]
	if !ok {
		return fmt.Errorf("request %s assigned to unknown mechanic %s", id, created.ServiceRequest.MechanicID)
	}

	steps := []struct {
		name   string
		client *Client
		path   string
		body   interface{}
	}{
		{"status updated", mechanic, "/mechanic/update_request_status/" + id, map[string]string{"status": "in_progress"}},
		{"inventory recorded", mechanic, "/mechanic/record_inventory/" + id, map[string]interface{}{"item_name": svc.Part, "quantity_used": 1 + rng.Intn(4)}},
		{"update submitted", mechanic, "/mechanic/submit_update/" + id, map[string]string{"update": svc.Update}},
		{"update verified", crew.Admin, "/admin/verify_update/" + id, map[string]bool{"verified": true}},
		{"bill generated", crew.Admin, "/admin/generate_bill", map[string]interface{}{"service_request_id": id, "amount": amount, "description": svc.Type}},
		{"payment completed", customer, "/customer/initiate_payment", map[string]interface{}{"service_request_id": id, "amount": amount, "payment_method": "credit_card"}},
	}
	for _, s := range steps {
		if err := s.client.call(http.MethodPost, s.path, s.body, nil); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		logger.Info(strings.ToUpper(s.name[:1]) + s.name[1:])
	}
	return nil
}

// setupCrew signs in the admin and mechanics and maps mechanics by user id.
func setupCrew(apiURL string, mechanics int, password string) (*Crew, error) {
	crew := &Crew{Admin: newClient(apiURL), Mechanics: make(map[string]*Client)}
	if _, err := crew.Admin.signup("admin", "Sim Admin", "sim-admin@example.com", password); err != nil {
		return nil, fmt.Errorf("admin signup: %w", err)
	}
	for i := 1; i <= mechanics; i++ {
		c := newClient(apiURL)
		email := fmt.Sprintf("sim-mechanic-%d@example.com", i)
		id, err := c.signup("mechanic", fmt.Sprintf("Sim Mechanic %d", i), email, password)
		if err != nil {
			return nil, fmt.Errorf("mechanic signup: %w", err)
		}
		crew.Mechanics[id] = c
	}
	return crew, nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	customers := envInt("SIM_CUSTOMERS", 5)
	mechanics := envInt("SIM_MECHANICS", 2)
	amount := 120.0
	if v := os.Getenv("SIM_BILL_AMOUNT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			amount = f
		}
	}
	password := "sim-password-123"

	log.WithFields(log.Fields{
		"api_url":   apiURL,
		"customers": customers,
		"mechanics": mechanics,
		"amount":    amount,
	}).Info("Starting workflow simulation")

	crew, err := setupCrew(apiURL, mechanics, password)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up staff accounts")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	completed := 0
	for i := 1; i <= customers; i++ {
		c := newClient(apiURL)
		email := fmt.Sprintf("sim-customer-%d-%d@example.com", time.Now().Unix(), i)
		if _, err := c.signup("customer", fmt.Sprintf("Sim Customer %d", i), email, password); err != nil {
			log.WithError(err).Error("Failed to sign up customer")
			continue
		}
		if err := runTicket(c, crew, rng, amount); err != nil {
			log.WithError(err).WithField("customer", email).Error("Ticket failed")
			continue
		}
		completed++
	}

	log.WithFields(log.Fields{
		"completed": completed,
		"customers": customers,
	}).Info("Workflow simulation finished")
	if completed == 0 {
		os.Exit(1)
	}
}
