package contract

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Attachment is a raw file supplied with a prior conversation turn.
type Attachment struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// Turn is one prior conversation turn as supplied by the caller. The engine
// does not persist turns; the caller owns conversation history.
type Turn struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Part is one element of a multimodal message body. Exactly one field is set.
type Part struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"` // data URL once inlined
}

// Message is one entry of the model-facing conversation built for a run.
// The sequence is append-only for the duration of the run.
type Message struct {
	Role       Role       `json:"role"`
	Text       string     `json:"text,omitempty"`
	Parts      []Part     `json:"parts,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-requested tool invocation. Arguments is the raw JSON
// payload produced by the model and must be parsed defensively.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition declares one callable tool to the model. Parameters is a
// flat JSON-schema object; catalogs set additionalProperties:false so the
// model's output stays deterministic to parse.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatRequest is the provider-neutral model invocation input.
type ChatRequest struct {
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	ToolChoice   string           `json:"tool_choice,omitempty"`
	MaxTokens    int64            `json:"max_tokens,omitempty"`
	ProviderHint string           `json:"provider_hint,omitempty"`
}

type ChatChoice struct {
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

type ChatResponse struct {
	Provider string       `json:"provider"`
	Model    string       `json:"model"`
	Choices  []ChatChoice `json:"choices"`
}

type ActionStatus string

const (
	ActionSuccess ActionStatus = "success"
	ActionPartial ActionStatus = "partial"
	ActionPreview ActionStatus = "preview"
	ActionBlocked ActionStatus = "blocked"
	ActionError   ActionStatus = "error"
)

// ActionSummary records the outcome of one mutating tool invocation (or a
// failed dispatch). Reads are not summarized.
type ActionSummary struct {
	Tool    string       `json:"tool"`
	Status  ActionStatus `json:"status"`
	Summary string       `json:"summary"`
}

// GraphPoint is one client's engagement-vs-revenue data point. Revenue is
// derived from RevenueMinor and is always RevenueMinor/100.
type GraphPoint struct {
	ClientID     string  `json:"client_id"`
	Name         string  `json:"name"`
	Messages     int     `json:"messages"`
	RevenueMinor int64   `json:"revenue_minor"`
	Revenue      float64 `json:"revenue"`
}

// RunInput is the caller-facing contract for one engine run.
type RunInput struct {
	ActingUserID   string `json:"acting_user_id"`
	Prompt         string `json:"prompt"`
	ProviderHint   string `json:"provider_hint,omitempty"`
	AllowMutations *bool  `json:"allow_mutations,omitempty"` // nil means true
	History        []Turn `json:"history,omitempty"`
}

// MutationsAllowed resolves the optional flag to its default.
func (in RunInput) MutationsAllowed() bool {
	return in.AllowMutations == nil || *in.AllowMutations
}

// RunOutput is the result of one engine run. Reply is always non-empty.
type RunOutput struct {
	Reply     string          `json:"reply"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	ToolsUsed []string        `json:"tools_used,omitempty"`
	Actions   []ActionSummary `json:"actions,omitempty"`
	Graph     []GraphPoint    `json:"graph,omitempty"`
}

/* ------------------------------ store records ----------------------------- */

type UserRole string

const (
	UserRoleTrainer UserRole = "trainer"
	UserRoleAdmin   UserRole = "admin"
	UserRoleMember  UserRole = "member"
)

type UserRecord struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

// ClientRecord is an entry in a trainer's client roster. UserID links to a
// platform account when the client has one.
type ClientRecord struct {
	ID        string `json:"id"`
	TrainerID string `json:"trainer_id"`
	UserID    string `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Status    string `json:"status"`
}

type BundleRecord struct {
	ID          string   `json:"id"`
	TrainerID   string   `json:"trainer_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	PriceMinor  int64    `json:"price_minor"`
	Tags        []string `json:"tags,omitempty"`
}

type OrderRecord struct {
	ID            string    `json:"id"`
	TrainerID     string    `json:"trainer_id"`
	ClientID      string    `json:"client_id,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	AmountMinor   int64     `json:"amount_minor"`
	CreatedAt     time.Time `json:"created_at"`
}

type ChatMessageRecord struct {
	ID       string    `json:"id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

type InvitationRecord struct {
	ID        string    `json:"id"`
	TrainerID string    `json:"trainer_id"`
	BundleID  string    `json:"bundle_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Token     string    `json:"token"`
	Message   string    `json:"message,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
