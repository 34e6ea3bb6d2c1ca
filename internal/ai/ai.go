package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/01moynul/stockroom/internal/models"
)

const (
	toolName = "run_readonly_sql"

	// maxToolCalls bounds the function-calling loop of one question.
	maxToolCalls = 5
	// maxRows caps how many rows a single tool call returns to the model.
	maxRows = 200
)

// ErrNotReadOnly is returned for any statement that is not one SELECT/WITH query.
var ErrNotReadOnly = errors.New("security violation: only a single SELECT query is allowed")

// ErrRestrictedColumn is returned for queries that name a credential column.
var ErrRestrictedColumn = errors.New("security violation: query references a restricted column")

// restrictedColumns never leave the database, whichever way they are selected.
var restrictedColumns = map[string]bool{"password_hash": true}

var restrictedColumnRef = regexp.MustCompile(`(?i)password_hash`)

var forbiddenKeywords = regexp.MustCompile(
	`\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|REPLACE|TRUNCATE|GRANT|REVOKE|ATTACH|DETACH|PRAGMA|LOAD_FILE|INTO|LOCK|CALL|SET)\b`)

// Reply is what the assistant returns for one question.
type Reply struct {
	Response    string `json:"response"`
	TotalTokens int    `json:"totalTokens"`
}

// Service holds the Gemini client and the read-only database connection.
type Service struct {
	client *genai.Client
	db     *sql.DB
	model  string
}

// NewService initializes the Gemini client.
func NewService(ctx context.Context, apiKey, modelName string, dbReadOnly *sql.DB) (*Service, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &Service{client: client, db: dbReadOnly, model: modelName}, nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

// Ask answers a question about the inventory, letting the model query the
// read-only connection through the run_readonly_sql tool.
func (s *Service) Ask(ctx context.Context, role models.Role, message string) (*Reply, error) {
	model := s.client.GenerativeModel(s.model)
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        toolName,
			Description: "Executes a READ-ONLY SQL query (SELECT only) to answer questions about stock.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {
						Type:        genai.TypeString,
						Description: "The SELECT query to execute.",
					},
				},
				Required: []string{"query"},
			},
		}},
	}}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(`
			You are the Stockroom inventory assistant. Role of the person asking: %s.
			Access: SQL database (run_readonly_sql).
			Schema: %s
			Rules: SELECT only. Be concise. Low stock means current_stock <= reorder_qty.
		`, role, schemaDefinition))},
	}

	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}

	reply := &Reply{}
	for calls := 0; ; calls++ {
		if res.UsageMetadata != nil {
			// Usage on each response covers the whole chat so far.
			reply.TotalTokens = int(res.UsageMetadata.TotalTokenCount)
		}
		if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			reply.Response = "No response."
			return reply, nil
		}
		part := res.Candidates[0].Content.Parts[0]

		call, ok := part.(genai.FunctionCall)
		if !ok {
			reply.Response = fmt.Sprintf("%v", part)
			return reply, nil
		}
		if call.Name != toolName {
			return nil, fmt.Errorf("unknown function: %s", call.Name)
		}
		if calls >= maxToolCalls {
			return nil, fmt.Errorf("assistant exceeded %d tool calls", maxToolCalls)
		}

		query, ok := call.Args["query"].(string)
		if !ok {
			return nil, errors.New("invalid query argument")
		}
		slog.InfoContext(ctx, "assistant running sql", "query", query)

		result, qerr := RunReadOnlyQuery(ctx, s.db, query)
		if qerr != nil {
			result = fmt.Sprintf("SQL Error: %v", qerr)
		}

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     toolName,
			Response: map[string]any{"result": result},
		})
		if err != nil {
			return nil, fmt.Errorf("tool response error: %w", err)
		}
	}
}

// CheckReadOnly accepts exactly one SELECT or WITH statement. A single
// trailing semicolon is tolerated.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	if q == "" || strings.Contains(q, ";") {
		return ErrNotReadOnly
	}

	upper := strings.ToUpper(q)
	fields := strings.Fields(upper)
	if fields[0] != "SELECT" && fields[0] != "WITH" && !strings.HasPrefix(fields[0], "SELECT(") {
		return ErrNotReadOnly
	}
	if forbiddenKeywords.MatchString(upper) {
		return ErrNotReadOnly
	}
	if restrictedColumnRef.MatchString(q) {
		return ErrRestrictedColumn
	}
	return nil
}

// RunReadOnlyQuery executes query on db and returns the rows as a JSON array
// of objects keyed by column name. Restricted columns reached through
// "SELECT *" are dropped from every row before anything is returned.
func RunReadOnlyQuery(ctx context.Context, db *sql.DB, query string) (string, error) {
	if err := CheckReadOnly(query); err != nil {
		return "", err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	tableData := []map[string]any{}
	for rows.Next() && len(tableData) < maxRows {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return "", err
		}
		entry := make(map[string]any, len(columns))
		for i, col := range columns {
			if restrictedColumns[strings.ToLower(col)] {
				continue
			}
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}
		tableData = append(tableData, entry)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	jsonData, err := json.Marshal(tableData)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

const schemaDefinition = `
	- users (id, email, full_name, role [ADMIN, STAFF], is_active)
	- categories (id, name, slug, color, is_active)
	- suppliers (id, name, business_name, contact_name, phone, email, supplier_type, min_order_type, min_order_value, is_active)
	- storage_locations (id, name, description, is_active)
	- items (id, brand, base_name, size, qty_weight, display_name, has_expiry, is_critical, category_id, supplier_id, storage_location_id, cost, reorder_qty, current_stock)
	- item_batches (id, item_id, batch_code, quantity, expiry_date, date_received)
	- transactions (id, item_id, user_id, transaction_type [STOCK_IN, STOCK_OUT], amount, stock_after, batch_id, notes, created_at)
	- system_settings (setting_key, setting_value, description)
	`
