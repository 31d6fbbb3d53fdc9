package bffstub

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	portalkit "github.com/inkfold/portalkit"
)

// Header names of the portal contract, mirrored from the gateway.
const (
	headerFingerprint  = "x-fingerprint"
	headerSessionToken = "x-session-token"
	headerAPIKey       = "apikey"
)

// Config defines a public type used by portalkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// APIKey is the static key every request must carry.
	APIKey string

	// SigningKey signs session tokens. Required.
	SigningKey []byte

	// MagicLinkToken is the one magic-link token the stub accepts.
	MagicLinkToken string

	// SessionTTL bounds minted session tokens. Defaults to 2h.
	SessionTTL time.Duration

	// BookingID of the seeded booking. Defaults to "bk-1001".
	BookingID string

	// Permissions granted on validation. Zero value grants nothing, so the
	// probe and tests set this explicitly.
	Permissions portalkit.Permissions
}

// Stub serves the portal backend-for-frontend contract in process.
// It is safe for concurrent use.
type Stub struct {
	cfg    Config
	engine *gin.Engine

	mu            sync.Mutex
	booking       portalkit.Booking
	messages      []portalkit.Message
	payments      []portalkit.Payment
	healing       []portalkit.HealingEntry
	revoked       map[string]bool
	refreshStatus int
	calls         map[string]int
}

// New creates a [Stub] with a seeded booking, message thread, and payment.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(cfg Config) (*Stub, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("bffstub: signing key required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.BookingID == "" {
		cfg.BookingID = "bk-1001"
	}

	s := &Stub{
		cfg:     cfg,
		revoked: make(map[string]bool),
		calls:   make(map[string]int),
	}
	s.seed()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/", s.dispatch)
	engine.GET("/", s.dispatch)
	s.engine = engine

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// SetRefreshFailure makes refresh-session answer with the given HTTP status.
// Zero restores normal behavior.
func (s *Stub) SetRefreshFailure(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatus = status
}

// CallCount returns how many requests the stub has served for an action.
func (s *Stub) CallCount(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[action]
}

func (s *Stub) seed() {
	now := time.Now().Unix()
	s.booking = portalkit.Booking{
		ID:          s.cfg.BookingID,
		Status:      "confirmed",
		ArtistName:  "Mara Voss",
		StudioName:  "Inkfold Studio",
		StartsAt:    now + 14*24*3600,
		Description: "Half sleeve, session 2 of 3",
		DepositPaid: true,
	}
	s.messages = []portalkit.Message{
		{ID: "msg-1", Sender: "artist", Body: "Reference sketches are ready for review.", SentAt: now - 3600, Read: true},
		{ID: "msg-2", Sender: "studio", Body: "Please confirm your arrival time.", SentAt: now - 600, Read: false},
	}
	s.payments = []portalkit.Payment{
		{ID: "pay-1", AmountCents: 15000, Currency: "EUR", Status: "due", CreatedAt: now - 86400},
	}
	s.healing = []portalkit.HealingEntry{
		{ID: "heal-1", Day: 2, PhotoURL: "https://cdn.example.test/heal-1.jpg", Note: "Slight redness", CreatedAt: now - 2*86400},
	}
}

func (s *Stub) dispatch(c *gin.Context) {
	action := c.Query("action")

	s.mu.Lock()
	s.calls[action]++
	s.mu.Unlock()

	if s.cfg.APIKey != "" && c.GetHeader(headerAPIKey) != s.cfg.APIKey {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid api key"})
		return
	}

	if action == "validate-magic-link" {
		s.handleValidate(c)
		return
	}

	claims, ok := s.authenticate(c)
	if !ok {
		return
	}

	switch action {
	case "refresh-session":
		s.handleRefresh(c, claims)
	case "logout":
		s.handleLogout(c, claims)
	case "get-booking":
		s.handleGetBooking(c)
	case "get-messages":
		s.handleGetMessages(c)
	case "send-message":
		s.handleSendMessage(c)
	case "get-payments":
		s.handleGetPayments(c)
	case "request-payment":
		s.handleRequestPayment(c)
	case "request-reschedule":
		c.JSON(http.StatusOK, gin.H{})
	case "upload-reference":
		s.handleUpload(c, "file")
	case "get-healing-entries":
		s.handleGetHealing(c)
	case "upload-healing-photo":
		s.handleUploadHealing(c)
	case "analyze-healing-photo-customer":
		s.handleAnalyzeHealing(c)
	case "request-certificate":
		c.JSON(http.StatusOK, gin.H{})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown action"})
	}
}

func (s *Stub) handleValidate(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	if body.Token != s.cfg.MagicLinkToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "magic link expired"})
		return
	}

	fp := c.GetHeader(headerFingerprint)
	if fp == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fingerprint"})
		return
	}

	token, expiresAt, err := s.mint(uuid.NewString(), fp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token mint failed"})
		return
	}

	s.mu.Lock()
	booking := s.booking
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"sessionToken": token,
		"expiresAt":    expiresAt,
		"booking":      booking,
		"permissions":  s.cfg.Permissions,
	})
}

func (s *Stub) handleRefresh(c *gin.Context, claims jwt.MapClaims) {
	s.mu.Lock()
	failStatus := s.refreshStatus
	s.mu.Unlock()
	if failStatus != 0 {
		c.JSON(failStatus, gin.H{"error": "refresh rejected"})
		return
	}

	sid, _ := claims["sid"].(string)
	fp, _ := claims["fp"].(string)

	// Rotation: the old sid is dead the moment a replacement is minted.
	s.mu.Lock()
	s.revoked[sid] = true
	s.mu.Unlock()

	token, expiresAt, err := s.mint(uuid.NewString(), fp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token mint failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionToken": token,
		"expiresAt":    expiresAt,
		"permissions":  s.cfg.Permissions,
	})
}

func (s *Stub) handleLogout(c *gin.Context, claims jwt.MapClaims) {
	sid, _ := claims["sid"].(string)
	s.mu.Lock()
	s.revoked[sid] = true
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Stub) handleGetBooking(c *gin.Context) {
	s.mu.Lock()
	booking := s.booking
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (s *Stub) handleGetMessages(c *gin.Context) {
	s.mu.Lock()
	msgs := make([]portalkit.Message, len(s.messages))
	copy(msgs, s.messages)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Stub) handleSendMessage(c *gin.Context) {
	var body struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing message body"})
		return
	}

	msg := portalkit.Message{
		ID:     uuid.NewString(),
		Sender: "customer",
		Body:   body.Body,
		SentAt: time.Now().Unix(),
		Read:   true,
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *Stub) handleGetPayments(c *gin.Context) {
	s.mu.Lock()
	pays := make([]portalkit.Payment, len(s.payments))
	copy(pays, s.payments)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"payments": pays})
}

func (s *Stub) handleRequestPayment(c *gin.Context) {
	var body struct {
		PaymentID string `json:"payment_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PaymentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payments {
		if s.payments[i].ID == body.PaymentID {
			s.payments[i].Status = "pending"
			s.payments[i].PaymentURL = "https://pay.example.test/" + body.PaymentID
			c.JSON(http.StatusOK, gin.H{"payment": s.payments[i]})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment"})
}

func (s *Stub) handleUpload(c *gin.Context, field string) {
	file, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file part"})
		return
	}
	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Stub) handleGetHealing(c *gin.Context) {
	s.mu.Lock()
	entries := make([]portalkit.HealingEntry, len(s.healing))
	copy(entries, s.healing)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Stub) handleUploadHealing(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil || file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing photo"})
		return
	}

	day, err := strconv.Atoi(c.PostForm("day"))
	if err != nil || day < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day"})
		return
	}

	entry := portalkit.HealingEntry{
		ID:        uuid.NewString(),
		Day:       day,
		PhotoURL:  "https://cdn.example.test/" + file.Filename,
		Note:      c.PostForm("note"),
		CreatedAt: time.Now().Unix(),
	}

	s.mu.Lock()
	s.healing = append(s.healing, entry)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (s *Stub) handleAnalyzeHealing(c *gin.Context) {
	var body struct {
		EntryID string `json:"entry_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.EntryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing entry id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.healing {
		if entry.ID == body.EntryID {
			c.JSON(http.StatusOK, gin.H{"analysis": portalkit.HealingAnalysis{
				EntryID:    entry.ID,
				Assessment: "Healing progressing normally for day " + strconv.Itoa(entry.Day) + ".",
				Concerns:   nil,
				Urgent:     false,
			}})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown healing entry"})
}

func (s *Stub) mint(sid, fingerprint string) (string, int64, error) {
	expiresAt := time.Now().Add(s.cfg.SessionTTL).Unix()
	claims := jwt.MapClaims{
		"sid": sid,
		"fp":  fingerprint,
		"bid": s.cfg.BookingID,
		"exp": expiresAt,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return "", 0, err
	}
	return token, expiresAt, nil
}

// authenticate verifies the session token and fingerprint binding. On
// failure it writes the rejection response and returns ok=false.
func (s *Stub) authenticate(c *gin.Context) (jwt.MapClaims, bool) {
	raw := c.GetHeader(headerSessionToken)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
		return nil, false
	}

	parsed, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return s.cfg.SigningKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session invalid"})
		return nil, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session invalid"})
		return nil, false
	}

	sid, _ := claims["sid"].(string)
	s.mu.Lock()
	dead := s.revoked[sid]
	s.mu.Unlock()
	if dead {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session revoked"})
		return nil, false
	}

	boundFP, _ := claims["fp"].(string)
	if boundFP != "" && c.GetHeader(headerFingerprint) != boundFP {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "fingerprint mismatch"})
		return nil, false
	}

	return claims, true
}
