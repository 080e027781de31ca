package clickup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/config"
	"github.com/why-platform/buzon-service/internal/domain"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

func testMessage() domain.Message {
	return domain.Message{
		TicketID:   "WHY-12345678-ABC123",
		Type:       domain.MessageTypeIdentified,
		Name:       "Juan Pérez",
		Email:      "juan.perez@ecomac.cl",
		Body:       "El panel de reportes no carga desde ayer",
		Category:   domain.CategoryBug,
		Department: "it",
		Priority:   domain.PriorityHigh,
		CreatedAt:  time.Now(),
	}
}

func testSLA() domain.SLADescriptor {
	return domain.SLADescriptor{
		Hours:               4,
		DueDate:             time.Now().Add(4 * time.Hour),
		EscalationThreshold: 3,
		Priority:            domain.BucketHigh,
	}
}

func newTestGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.ClickUpConfig{
		APIURL:            server.URL,
		APIKey:            "pk_test",
		ListsByDepartment: map[string]string{"it": "901"},
		DefaultListID:     "900",
	}
	g := NewGateway(NewClient(cfg), cfg, zap.NewNop())
	// fast retries in tests
	g.retryPolicy.BaseDelay = time.Millisecond
	g.retryPolicy.MaxDelay = 2 * time.Millisecond
	return g
}

func okTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "task-9", "url": "https://app.clickup.com/t/task-9"}`))
	}
}

func TestCreateTicket(t *testing.T) {
	var taskBody taskRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/list/901/task", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&taskBody))
		assert.Equal(t, "pk_test", r.Header.Get("Authorization"))
		okTaskHandler()(w, r)
	})
	mux.HandleFunc("/", okTaskHandler())

	g := newTestGateway(t, mux)
	result, err := g.CreateTicket(context.Background(), testMessage(), testSLA())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "task-9", result.TaskID)
	assert.Equal(t, "901", result.ListID)
	assert.Equal(t, "https://app.clickup.com/t/task-9", result.URL)

	assert.Equal(t, "El panel de reportes no carga desde ayer - WHY-12345678-ABC123", taskBody.Name)
	assert.Equal(t, 2, taskBody.Priority)
	assert.Equal(t, "pendiente servidor dev", taskBody.Status)
	assert.Contains(t, taskBody.Description, "El panel de reportes no carga desde ayer")

	// alta on a two-person department assigns the upper half
	require.Len(t, result.AssignedUsers, 1)
	assert.Equal(t, "Juan Pérez", result.AssignedUsers[0].Name)
}

func TestCreateTicketTruncatesLongTitle(t *testing.T) {
	msg := testMessage()
	msg.Body = strings.Repeat("a", 80)
	title := buildTitle(msg)
	assert.Equal(t, strings.Repeat("a", 60)+"... - WHY-12345678-ABC123", title)
}

func TestCreateTicketUnknownDepartmentUsesDefaultList(t *testing.T) {
	var path atomic.Value
	g := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/list/") {
			path.Store(r.URL.Path)
		}
		okTaskHandler()(w, r)
	}))

	msg := testMessage()
	msg.Department = "legal"
	_, err := g.CreateTicket(context.Background(), msg, testSLA())
	require.NoError(t, err)
	assert.Equal(t, "/list/900/task", path.Load())
}

func TestCreateTicketRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	g := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/list/") {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		okTaskHandler()(w, r)
	}))

	result, err := g.CreateTicket(context.Background(), testMessage(), testSLA())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestCreateTicketDoesNotRetryAuthFailures(t *testing.T) {
	var attempts atomic.Int32
	g := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := g.CreateTicket(context.Background(), testMessage(), testSLA())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestCreateTicketExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	g := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := g.CreateTicket(context.Background(), testMessage(), testSLA())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestBuildTags(t *testing.T) {
	t.Run("identified high priority", func(t *testing.T) {
		tags := buildTags(testMessage())
		assert.Equal(t, []string{"buzon-del-porque", "it", "bug", "technical", "alta", "interno"}, tags)
	})

	t.Run("anonymous without department", func(t *testing.T) {
		msg := domain.Message{
			Type:     domain.MessageTypeAnonymous,
			Category: domain.CategorySuggestion,
			Priority: domain.PriorityLow,
		}
		tags := buildTags(msg)
		assert.Equal(t, []string{"buzon-del-porque", "general", "suggestion", "improvement", "anonimo"}, tags)
	})
}

func TestPriorityMapping(t *testing.T) {
	assert.Equal(t, 1, priorityMapping[domain.PriorityUrgent])
	assert.Equal(t, 2, priorityMapping[domain.PriorityHigh])
	assert.Equal(t, 3, priorityMapping[domain.PriorityMedium])
	assert.Equal(t, 4, priorityMapping[domain.PriorityLow])
}

func TestBuildDescriptionSections(t *testing.T) {
	desc := buildDescription(testMessage(), testSLA())
	assert.Contains(t, desc, "Detalles del Ticket")
	assert.Contains(t, desc, "Mensaje Original")
	assert.Contains(t, desc, "Información del Remitente")
	assert.Contains(t, desc, "Juan Pérez")
	assert.Contains(t, desc, "Acciones Recomendadas")

	anon := testMessage()
	anon.Type = domain.MessageTypeAnonymous
	anon.Name = ""
	anon.Email = ""
	desc = buildDescription(anon, testSLA())
	assert.NotContains(t, desc, "Información del Remitente")
}

func TestUpdateTicketStatus(t *testing.T) {
	var statusBody map[string]any
	var commentBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/task/task-9", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&statusBody))
		okTaskHandler()(w, r)
	})
	mux.HandleFunc("/task/task-9/comment", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&commentBody))
		okTaskHandler()(w, r)
	})

	g := newTestGateway(t, mux)
	err := g.UpdateTicketStatus(context.Background(), "task-9", "en progreso", "Tomado por soporte")
	require.NoError(t, err)
	assert.Equal(t, "en progreso", statusBody["status"])
	assert.Equal(t, "Tomado por soporte", commentBody["comment_text"])
	assert.Equal(t, true, commentBody["notify_all"])
}

func TestSyncTicketsIsolatesFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/task/good", okTaskHandler())
	mux.HandleFunc("/task/bad", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	g := newTestGateway(t, mux)
	outcomes := g.SyncTickets(context.Background(), []string{"good", "bad"})
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Synced)
	assert.False(t, outcomes[1].Synced)
	assert.NotEmpty(t, outcomes[1].Error)
}
