package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"docketline/internal/dates"
	"docketline/internal/domain"
	"docketline/internal/engine"
	"docketline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"filing_date: must be a valid YYYY-MM-DD date"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"field\":\"filing_date\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Docketline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		cfg.Auth.logger().Printf("WARNING: no JWT secret configured; API accepts unauthenticated requests as actor \"dev\"")
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the required envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Docketline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerFirm(group, cfg.Engine)
	registerMatters(group, cfg.Engine)
	registerCalculate(group, cfg.Engine)
	registerDeadlines(group, cfg.Engine)
	registerRules(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func bodyBytes(ctx context.Context) []byte {
	b, _ := ctx.Value(bodyBytesKey{}).([]byte)
	return b
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		var details map[string]any
		if ve.Field != "" {
			details = map[string]any{"field": ve.Field}
		}
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), details)
	}
	var se domain.InvalidStateError
	if errors.As(err, &se) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), map[string]any{"status": se.Current})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func today(e *engine.Engine) string {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return dates.FormatDate(dates.Truncate(now()))
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Docketline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerFirm(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-firm",
		Method:      http.MethodGet,
		Path:        "/firm",
		Summary:     "Get firm",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.Firm `json:"body"`
	}, error) {
		f, err := e.Repo.GetFirm(ctx, e.Config.Firm.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Firm `json:"body"`
		}{Body: f}, nil
	})
}

func registerMatters(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-matter",
		Method:        http.MethodPost,
		Path:          "/matters",
		Summary:       "Create matter",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateMatterRequest `json:"body"`
	}) (*struct {
		Body MatterResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.CreateMatter(ctx, engine.CreateMatterOptions{
			ClientName:   input.Body.ClientName,
			Title:        input.Body.Title,
			PracticeArea: input.Body.PracticeArea,
			OpenedAt:     input.Body.OpenedAt,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MatterResponse `json:"body"`
		}{Body: matterResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-matters",
		Method:      http.MethodGet,
		Path:        "/matters",
		Summary:     "List matters",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:",open,closed"`
		Limit  int    `query:"limit" minimum:"0" maximum:"500"`
	}) (*struct {
		Body []MatterResponse `json:"body"`
	}, error) {
		limit := input.Limit
		if limit == 0 {
			limit = 100
		}
		items, err := e.Repo.ListMatters(ctx, repo.MatterFilters{
			FirmID: e.Config.Firm.ID,
			Status: input.Status,
			Limit:  limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []MatterResponse `json:"body"`
		}{Body: mapMatters(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-matter",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}",
		Summary:     "Get matter",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
	}) (*struct {
		Body MatterResponse `json:"body"`
	}, error) {
		m, err := e.Repo.GetMatter(ctx, input.MatterID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MatterResponse `json:"body"`
		}{Body: matterResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-matter-deadline",
		Method:        http.MethodPost,
		Path:          "/matters/{matter_id}/deadlines",
		Summary:       "Add manual deadline",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		MatterID string                `path:"matter_id"`
		Body     CreateDeadlineRequest `json:"body"`
	}) (*struct {
		Body DeadlineResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.AddDeadline(ctx, engine.AddDeadlineOptions{
			MatterID:     input.MatterID,
			Title:        input.Body.Title,
			DeadlineType: input.Body.DeadlineType,
			Description:  input.Body.Description,
			DueDate:      input.Body.DueDate,
			Priority:     input.Body.Priority,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeadlineResponse `json:"body"`
		}{Body: deadlineResponse(d, today(e))}, nil
	})
}

func registerCalculate(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "calculate-deadlines",
		Method:      http.MethodPost,
		Path:        "/deadlines/calculate",
		Summary:     "Calculate deadlines for a procedural event",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body CalculateRequest `json:"body"`
	}) (*struct {
		Body CalculateResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.Calculate(ctx, engine.CalculateOptions{
			EventType:  input.Body.EventType,
			FilingDate: input.Body.FilingDate,
			Court:      input.Body.Court,
			MatterID:   input.Body.MatterID,
			Save:       input.Body.SaveDeadlines,
			ActorID:    actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CalculateResponse `json:"body"`
		}{Body: calculateResponse(res)}, nil
	})
}

func registerDeadlines(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-deadlines",
		Method:      http.MethodGet,
		Path:        "/deadlines",
		Summary:     "List deadlines",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		MatterID string `query:"matter_id"`
		Status   string `query:"status" enum:",pending,completed"`
		Priority string `query:"priority" enum:",low,medium,high,critical"`
		Type     string `query:"type"`
		Limit    int    `query:"limit" minimum:"0" maximum:"500"`
		Cursor   string `query:"cursor"`
	}) (*struct {
		Body []DeadlineResponse `json:"body"`
	}, error) {
		limit := input.Limit
		if limit == 0 {
			limit = 100
		}
		filters := repo.DeadlineFilters{
			FirmID:       e.Config.Firm.ID,
			MatterID:     input.MatterID,
			Status:       input.Status,
			Priority:     input.Priority,
			DeadlineType: input.Type,
			Limit:        limit,
		}
		if input.Cursor != "" {
			dueDate, id, ok := strings.Cut(input.Cursor, "|")
			if !ok {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "cursor must be <due_date>|<id>", nil)
			}
			filters.CursorDueDate = dueDate
			filters.CursorID = id
		}
		items, err := e.Repo.ListDeadlines(ctx, filters)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DeadlineResponse `json:"body"`
		}{Body: mapDeadlines(items, today(e))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deadline-summary",
		Method:      http.MethodGet,
		Path:        "/deadlines/summary",
		Summary:     "Upcoming deadlines and overdue count",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		MatterID   string `query:"matter_id"`
		WindowDays int    `query:"window_days" minimum:"0" maximum:"365"`
		Limit      int    `query:"limit" minimum:"0" maximum:"500"`
	}) (*struct {
		Body SummaryResponse `json:"body"`
	}, error) {
		s, err := e.Summary(ctx, engine.SummaryOptions{
			MatterID:   input.MatterID,
			WindowDays: input.WindowDays,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SummaryResponse `json:"body"`
		}{Body: SummaryResponse{
			AsOf:         s.AsOf,
			WindowDays:   s.WindowDays,
			Upcoming:     mapDeadlines(s.Upcoming, s.AsOf),
			OverdueCount: s.OverdueCount,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deadline-calendar",
		Method:      http.MethodGet,
		Path:        "/deadlines/calendar",
		Summary:     "Deadlines grouped by day for a date range",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Start string `query:"start" required:"true" format:"date"`
		End   string `query:"end" required:"true" format:"date"`
	}) (*struct {
		Body struct {
			Days []CalendarDayResponse `json:"days"`
		} `json:"body"`
	}, error) {
		days, err := e.CalendarRange(ctx, input.Start, input.End)
		if err != nil {
			return nil, handleError(err)
		}
		t := today(e)
		out := make([]CalendarDayResponse, 0, len(days))
		for _, day := range days {
			out = append(out, CalendarDayResponse{
				Date:      day.Date,
				Deadlines: mapDeadlines(day.Deadlines, t),
			})
		}
		resp := &struct {
			Body struct {
				Days []CalendarDayResponse `json:"days"`
			} `json:"body"`
		}{}
		resp.Body.Days = out
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-deadline",
		Method:      http.MethodGet,
		Path:        "/deadlines/{deadline_id}",
		Summary:     "Get deadline",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DeadlineID string `path:"deadline_id"`
	}) (*struct {
		Body DeadlineResponse `json:"body"`
	}, error) {
		d, err := e.Repo.GetDeadline(ctx, input.DeadlineID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeadlineResponse `json:"body"`
		}{Body: deadlineResponse(d, today(e))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-deadline",
		Method:      http.MethodPost,
		Path:        "/deadlines/{deadline_id}/complete",
		Summary:     "Mark deadline completed",
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		DeadlineID string `path:"deadline_id"`
	}) (*struct {
		Body DeadlineResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.MarkCompleted(ctx, input.DeadlineID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeadlineResponse `json:"body"`
		}{Body: deadlineResponse(d, today(e))}, nil
	})
}

func registerRules(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rules",
		Method:      http.MethodGet,
		Path:        "/rules",
		Summary:     "List procedural rules",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		EventType string `query:"event_type"`
		Court     string `query:"court"`
	}) (*struct {
		Body []RuleResponse `json:"body"`
	}, error) {
		var defs []domain.RuleDefinition
		if input.EventType != "" {
			var err error
			defs, err = e.Catalog.RulesFor(input.EventType, input.Court)
			if err != nil {
				return nil, handleError(err)
			}
			if input.Court == "" {
				// No court filter: include every court for the event.
				defs = nil
				for _, d := range e.Catalog.All() {
					if d.EventType == input.EventType {
						defs = append(defs, d)
					}
				}
			}
		} else {
			defs = e.Catalog.All()
			if input.Court != "" {
				filtered := defs[:0]
				for _, d := range defs {
					if strings.EqualFold(d.Court, input.Court) {
						filtered = append(filtered, d)
					}
				}
				defs = filtered
			}
		}
		out := make([]RuleResponse, 0, len(defs))
		for _, d := range defs {
			out = append(out, ruleResponse(d))
		}
		return &struct {
			Body []RuleResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-event-types",
		Method:      http.MethodGet,
		Path:        "/rules/event-types",
		Summary:     "List supported event types",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			EventTypes []string `json:"event_types"`
			Courts     []string `json:"courts"`
		} `json:"body"`
	}, error) {
		resp := &struct {
			Body struct {
				EventTypes []string `json:"event_types"`
				Courts     []string `json:"courts"`
			} `json:"body"`
		}{}
		resp.Body.EventTypes = e.EventTypes()
		resp.Body.Courts = e.Catalog.Courts()
		return resp, nil
	})
}

func registerEvents(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Tail the audit log",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" minimum:"0" maximum:"500"`
		Cursor     int64  `query:"cursor" minimum:"0"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		limit := input.Limit
		if limit == 0 {
			limit = 50
		}
		items, err := e.Repo.LatestEventsFrom(ctx, limit, input.Cursor, e.Config.Firm.ID, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EventResponse, 0, len(items))
		for _, ev := range items {
			out = append(out, eventResponse(ev))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: out}, nil
	})
}
