package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/api"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cleanup"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/config"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/wizard"
)

// newTestServer wires a Server against a disposable Postgres container and
// a mocked LLM client, serves it on a random port, and returns the base
// URL to hit.
func newTestServer(t *testing.T) string {
	return newTestServerWithFeatures(t, false)
}

// newTestServerWithFeatures is newTestServer with debugAllowPages wired
// through to the server's feature flags, used by end-to-end generation
// tests so the reference HTML/PDF renderer's crude length-based page
// heuristic can't turn an otherwise-valid document into a spurious
// renderer_failed; the real two-page invariant is covered at the unit
// level by pkg/cv's validator tests and pkg/render's page-count tests.
func newTestServerWithFeatures(t *testing.T, debugAllowPages bool) string {
	t.Helper()
	t.Setenv("LLM_MOCK", "1")
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cvwizard"),
		tcpostgres.WithUsername("cvwizard"),
		tcpostgres.WithPassword("cvwizard"),
		testcontainers.WithWaitStrategyAndDeadline(60*time.Second,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	s, err := store.Open(ctx, store.Config{
		Host:     host,
		Port:     port.Int(),
		User:     "cvwizard",
		Password: "cvwizard",
		Database: "cvwizard",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	llmClient, err := llm.NewClient(ctx, "")
	require.NoError(t, err)

	cfg := &config.Config{
		Features: config.FeatureFlags{
			SessionTTL:       time.Hour,
			IdempotencyLatch: true,
			DebugAllowPages:  debugAllowPages,
		},
	}

	dispatcher := wizard.New(s, llmClient)
	renderPath := render.NewPath(s)
	cleanupSvc := cleanup.NewService(cleanup.DefaultConfig(), s)

	srv := api.NewServer(cfg, s, dispatcher, renderPath, cleanupSvc)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.StartWithListener(ln) }()
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	return "http://" + ln.Addr().String()
}

func postJSON(t *testing.T, baseURL string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(baseURL+"/cv-tool-call-handler", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// orchestrated posts one process_cv_orchestrated turn for actionID with
// the given payload (nil for actions that take none).
func orchestrated(t *testing.T, baseURL, sessionID string, actionID string, payload any) *http.Response {
	t.Helper()
	params, err := json.Marshal(map[string]any{"action_id": actionID, "payload": payload})
	require.NoError(t, err)
	return postJSON(t, baseURL, api.ToolCallRequest{ToolName: "process_cv_orchestrated", SessionID: sessionID, Params: params})
}

// advanceToEducationConfirmed walks a freshly bootstrapped session through
// select_language, a goto_stage jump into contact, and both confirmation
// actions: the declared stage order the wizard gates
// confirm_contact/confirm_education on, landing the session on the
// job-posting stage with both confirmed flags set.
func advanceToEducationConfirmed(t *testing.T, baseURL, sessionID string) {
	t.Helper()

	langResp := orchestrated(t, baseURL, sessionID, "select_language", map[string]string{"language": "en"})
	defer langResp.Body.Close()
	require.Equal(t, http.StatusOK, langResp.StatusCode)

	gotoResp := orchestrated(t, baseURL, sessionID, "goto_stage", map[string]string{"target_stage": "contact"})
	defer gotoResp.Body.Close()
	require.Equal(t, http.StatusOK, gotoResp.StatusCode)

	for _, action := range []string{"confirm_contact", "confirm_education"} {
		r := orchestrated(t, baseURL, sessionID, action, nil)
		r.Body.Close()
		require.Equal(t, http.StatusOK, r.StatusCode, "action %s", action)
	}
}

func TestHealthEndpoint(t *testing.T) {
	baseURL := newTestServer(t)

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.HealthResponse
	decodeJSON(t, resp, &body)
	require.Equal(t, "healthy", body.Status)
}

func TestToolCallHandler_UnknownTool(t *testing.T) {
	baseURL := newTestServer(t)

	resp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "not_a_real_tool", SessionID: "sess-1"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body api.ErrorResponse
	decodeJSON(t, resp, &body)
	require.Equal(t, "internal", body.Error)
	require.NotEmpty(t, body.TraceID)
}

func TestToolCallHandler_MissingSessionID(t *testing.T) {
	baseURL := newTestServer(t)

	resp := postJSON(t, baseURL, map[string]string{"tool_name": "get_session"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToolCallHandler_GetSessionNotFound(t *testing.T) {
	baseURL := newTestServer(t)

	resp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "get_session", SessionID: "does-not-exist"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body api.ErrorResponse
	decodeJSON(t, resp, &body)
	require.Equal(t, "not_found", body.Error)
}

func TestToolCallHandler_BootstrapGetUpdateFlow(t *testing.T) {
	baseURL := newTestServer(t)
	sessionID := "sess-flow-1"

	bootResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	defer bootResp.Body.Close()
	require.Equal(t, http.StatusOK, bootResp.StatusCode)

	var bootBody api.ToolResponse
	decodeJSON(t, bootResp, &bootBody)
	require.NotNil(t, bootBody.UIAction)
	require.Equal(t, "select_language", bootBody.UIAction.Name)

	// Bootstrapping the same session id twice is rejected (idempotent
	// bootstrap rule): stage_violation, not a silent no-op.
	dupResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	defer dupResp.Body.Close()
	require.Equal(t, http.StatusConflict, dupResp.StatusCode)

	updateParams, err := json.Marshal(map[string]any{"path": "full_name", "value": "Ada Lovelace"})
	require.NoError(t, err)
	updResp := postJSON(t, baseURL, api.ToolCallRequest{
		ToolName:  "update_field",
		SessionID: sessionID,
		Params:    updateParams,
	})
	defer updResp.Body.Close()
	require.Equal(t, http.StatusOK, updResp.StatusCode)

	getResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "get_session", SessionID: sessionID})
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var getBody api.ToolResponse
	decodeJSON(t, getResp, &getBody)
	dataBytes, err := json.Marshal(getBody.Data)
	require.NoError(t, err)
	var summary struct {
		CVData struct {
			FullName string `json:"full_name"`
		} `json:"cv_data"`
		Version int64 `json:"version"`
	}
	require.NoError(t, json.Unmarshal(dataBytes, &summary))
	require.Equal(t, "Ada Lovelace", summary.CVData.FullName)
	require.Equal(t, int64(2), summary.Version, "bootstrap then one update_field turn should leave version at 2")
}

// TestToolCallHandler_BootstrapWithDocxStagesPrefill covers the upload
// flow end to end against a running server: bootstrap with an uploaded document
// stages docx_prefill_unconfirmed, and only confirm_contact/confirm_education
// copy it into cv_data, never bootstrap itself.
func TestToolCallHandler_BootstrapWithDocxStagesPrefill(t *testing.T) {
	baseURL := newTestServer(t)
	sessionID := "sess-docx-1"

	bootParams, err := json.Marshal(map[string]any{
		"docx_base64": base64.StdEncoding.EncodeToString([]byte("not a real docx, just non-empty bytes")),
	})
	require.NoError(t, err)
	bootResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID, Params: bootParams})
	defer bootResp.Body.Close()
	require.Equal(t, http.StatusOK, bootResp.StatusCode, "bootstrap_session with a docx_base64 payload must reach the DOCX collaborator and succeed")

	getBeforeConfirm := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "get_session", SessionID: sessionID})
	var beforeConfirm api.ToolResponse
	decodeJSON(t, getBeforeConfirm, &beforeConfirm)
	rawBefore, err := json.Marshal(beforeConfirm.Data)
	require.NoError(t, err)
	var summaryBefore struct {
		CVData struct {
			FullName string `json:"full_name"`
		} `json:"cv_data"`
	}
	require.NoError(t, json.Unmarshal(rawBefore, &summaryBefore))
	require.Empty(t, summaryBefore.CVData.FullName, "docx prefill must not reach cv_data before a confirm action")

	advanceToEducationConfirmed(t, baseURL, sessionID)

	getResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "get_session", SessionID: sessionID})
	var after api.ToolResponse
	decodeJSON(t, getResp, &after)
	raw, err := json.Marshal(after.Data)
	require.NoError(t, err)
	var summary struct {
		CVData struct {
			FullName  string `json:"full_name"`
			Email     string `json:"email"`
			Education []struct {
				Institution string `json:"institution"`
			} `json:"education"`
		} `json:"cv_data"`
	}
	require.NoError(t, json.Unmarshal(raw, &summary))
	require.Equal(t, "Document Candidate", summary.CVData.FullName, "confirm_contact must copy the staged docx prefill into cv_data")
	require.Equal(t, "candidate@example.com", summary.CVData.Email)
	require.Len(t, summary.CVData.Education, 1)
	require.Equal(t, "State University", summary.CVData.Education[0].Institution, "confirm_education must copy staged docx education entries into cv_data")

	badParams, err := json.Marshal(map[string]any{"docx_base64": "not-valid-base64!!"})
	require.NoError(t, err)
	badResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: "sess-docx-bad", Params: badParams})
	defer badResp.Body.Close()
	require.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func TestToolCallHandler_ValidateCV(t *testing.T) {
	baseURL := newTestServer(t)
	sessionID := "sess-validate-1"

	boot := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	boot.Body.Close()
	require.Equal(t, http.StatusOK, boot.StatusCode)

	resp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "validate_cv", SessionID: sessionID})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.ToolResponse
	decodeJSON(t, resp, &body)
	require.NotNil(t, body.Data, "an empty freshly bootstrapped cv should still produce a validation result")
}

func TestToolCallHandler_SessionSearchRequiresQuery(t *testing.T) {
	baseURL := newTestServer(t)
	sessionID := "sess-search-1"

	boot := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	boot.Body.Close()

	resp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "session_search", SessionID: sessionID})
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestToolCallHandler_CleanupExpiredSessions(t *testing.T) {
	baseURL := newTestServer(t)
	sessionID := "sess-cleanup-1"

	boot := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	boot.Body.Close()

	resp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "cleanup_expired_sessions", SessionID: sessionID})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestToolCallHandler_GenerateCV_BlockedOnEmptySession: a freshly
// bootstrapped session has no work experience, no education,
// and no confirmed flags, so generate_cv_from_session must refuse with
// readiness_not_met rather than attempt a render.
func TestToolCallHandler_GenerateCV_BlockedOnEmptySession(t *testing.T) {
	baseURL := newTestServer(t)
	sessionID := "sess-readiness-1"

	boot := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	boot.Body.Close()

	resp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "generate_cv_from_session", SessionID: sessionID})
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body api.ErrorResponse
	decodeJSON(t, resp, &body)
	require.Equal(t, "readiness_not_met", body.Error)
	require.Contains(t, body.Details, "work_experience")
	require.Contains(t, body.Details, "education")
	require.Contains(t, body.Details, "contact_confirmed")
	require.Contains(t, body.Details, "education_confirmed")
}

// TestToolCallHandler_GenerateCV_HappyPath: once the
// required fields are written and both confirmation flags are set, the
// readiness gate opens and generate_cv_from_session renders a PDF; a
// second call with the idempotency latch on and an unchanged document
// returns byte-identical output (no re-render). The exact-two-pages
// invariant is exercised directly against the deterministic page
// model in pkg/cv's validator tests rather than through this reference
// renderer's coarse length heuristic.
func TestToolCallHandler_GenerateCV_HappyPath(t *testing.T) {
	baseURL := newTestServerWithFeatures(t, true)
	sessionID := "sess-happy-path-1"

	boot := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	boot.Body.Close()

	updates, err := json.Marshal(map[string]any{
		"updates": []map[string]any{
			{"path": "full_name", "value": "John Doe"},
			{"path": "email", "value": "j@d.com"},
			{"path": "phone", "value": "+1 555 0100"},
			{"path": "address_lines", "value": []string{"123 Main St, Springfield"}},
			{"path": "profile", "value": "Backend engineer with a decade of experience shipping reliable distributed systems across fintech and logistics."},
			{"path": "work_experience", "value": []map[string]any{
				{
					"date_range": "2020-2024",
					"employer":   "Acme",
					"title":      "Eng",
					"bullets":    []string{"Led a team of five engineers", "Shipped the flagship payments pipeline"},
				},
			}},
			{"path": "education", "value": []map[string]any{
				{"date_range": "2016-2020", "institution": "MIT", "title": "BSc Computer Science", "details": []string{}},
			}},
			{"path": "languages", "value": []map[string]any{
				{"name": "English", "level": "native"},
			}},
			{"path": "it_ai_skills", "value": []string{"Go", "Python", "Kubernetes", "Terraform", "PostgreSQL"}},
			{"path": "technical_operational_skills", "value": []string{"Incident response", "Code review", "Mentoring", "Agile planning", "On-call rotations"}},
		},
	})
	require.NoError(t, err)
	updResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "update_field", SessionID: sessionID, Params: updates})
	updResp.Body.Close()
	require.Equal(t, http.StatusOK, updResp.StatusCode)

	advanceToEducationConfirmed(t, baseURL, sessionID)

	resp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "generate_cv_from_session", SessionID: sessionID})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	firstPDF, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, firstPDF)

	getResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "get_session", SessionID: sessionID})
	var getBody api.ToolResponse
	decodeJSON(t, getResp, &getBody)
	dataBytes, err := json.Marshal(getBody.Data)
	require.NoError(t, err)
	var summary struct {
		Readiness struct {
			CanGenerate bool `json:"can_generate"`
		} `json:"readiness"`
	}
	require.NoError(t, json.Unmarshal(dataBytes, &summary))
	require.True(t, summary.Readiness.CanGenerate)

	// Idempotency latch: an unchanged document returns the identical bytes.
	resp2 := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "generate_cv_from_session", SessionID: sessionID})
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	secondPDF, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	require.Equal(t, firstPDF, secondPDF, "idempotency latch should short-circuit to the cached render")
}

// TestToolCallHandler_CoverLetterAlwaysRegenerates:
// generate_cover_letter_from_session never checks pdf_refs.cover_letter
// before rendering (unlike the CV path's idempotency latch), so two calls
// against the same unchanged document both succeed by running the
// renderer again rather than the second short-circuiting to a cached ref.
func TestToolCallHandler_CoverLetterAlwaysRegenerates(t *testing.T) {
	baseURL := newTestServerWithFeatures(t, true)
	sessionID := "sess-cover-letter-1"

	boot := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "bootstrap_session", SessionID: sessionID})
	boot.Body.Close()

	updates, err := json.Marshal(map[string]any{
		"updates": []map[string]any{
			{"path": "full_name", "value": "Jane Roe"},
			{"path": "email", "value": "jane@roe.com"},
			{"path": "phone", "value": "+1 555 0199"},
			{"path": "address_lines", "value": []string{"456 Oak Ave, Metropolis"}},
			{"path": "profile", "value": "Senior engineer focused on payments infrastructure, resilient ledgers, and high-throughput transaction processing."},
			{"path": "work_experience", "value": []map[string]any{
				{"date_range": "2018-2024", "employer": "Globex", "title": "Senior Eng", "bullets": []string{"Built the core ledger service"}},
			}},
			{"path": "education", "value": []map[string]any{
				{"date_range": "2014-2018", "institution": "Stanford", "title": "BSc", "details": []string{}},
			}},
			{"path": "languages", "value": []map[string]any{
				{"name": "English", "level": "native"},
			}},
			{"path": "it_ai_skills", "value": []string{"Go", "Java", "AWS", "Docker", "Redis"}},
			{"path": "technical_operational_skills", "value": []string{"Incident response", "Code review", "Capacity planning", "Mentoring", "On-call rotations"}},
		},
	})
	require.NoError(t, err)
	updResp := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "update_field", SessionID: sessionID, Params: updates})
	updResp.Body.Close()

	advanceToEducationConfirmed(t, baseURL, sessionID)

	first := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "generate_cover_letter_from_session", SessionID: sessionID})
	require.Equal(t, http.StatusOK, first.StatusCode)
	firstPDF, err := io.ReadAll(first.Body)
	first.Body.Close()
	require.NoError(t, err)
	require.NotEmpty(t, firstPDF)

	// No idempotency short-circuit: the cover letter path always calls the
	// renderer again rather than checking pdf_refs.cover_letter first.
	second := postJSON(t, baseURL, api.ToolCallRequest{ToolName: "generate_cover_letter_from_session", SessionID: sessionID})
	require.Equal(t, http.StatusOK, second.StatusCode)
	secondPDF, err := io.ReadAll(second.Body)
	second.Body.Close()
	require.NoError(t, err)
	require.NotEmpty(t, secondPDF)
}
