package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/conversation"
	"github.com/example/medication-assistant/internal/photostore"
	"github.com/example/medication-assistant/internal/testfixtures"
)

type testEnv struct {
	router      http.Handler
	store       *testfixtures.MemoryStore
	medications *application.MedicationService
	photos      *photostore.Store
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	store := testfixtures.NewMemoryStore()

	photos, err := photostore.New(t.TempDir())
	if err != nil {
		t.Fatalf("photostore.New: %v", err)
	}

	medications := application.NewMedicationService(store, store, photos, clock.NowFunc(), logger)
	confirmations := application.NewConfirmationService(medications, clock.NowFunc(), logger)
	engine := conversation.NewEngine(medications, confirmations, store, store, clock.NowFunc(), logger)

	router := NewRouter(RouterConfig{
		Chat:          NewChatHandler(engine, logger),
		Agenda:        NewAgendaHandler(medications, logger),
		Confirmations: NewConfirmationHandler(confirmations, logger),
		Photos:        NewPhotoHandler(medications, photos, logger),
		Middleware:    []func(http.Handler) http.Handler{RequestLogger(logger)},
	})

	return testEnv{router: router, store: store, medications: medications, photos: photos}
}

func (env testEnv) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.NewDecoder(recorder.Body).Decode(&value); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return value
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("handles a conversation turn", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		recorder := env.do(t, http.MethodPost, "/chat", []byte(`{"message":"oi"}`))
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
		}
		resp := decodeBody[chatResponse](t, recorder)
		if !strings.Contains(resp.Reply, "nome do paciente") {
			t.Fatalf("reply = %q, want the patient name question", resp.Reply)
		}
	})

	t.Run("rejects malformed and empty payloads", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if got := env.do(t, http.MethodPost, "/chat", []byte(`{not json`)).Code; got != http.StatusBadRequest {
			t.Fatalf("malformed body status = %d, want %d", got, http.StatusBadRequest)
		}
		if got := env.do(t, http.MethodPost, "/chat", []byte(`{"message":"   "}`)).Code; got != http.StatusBadRequest {
			t.Fatalf("blank message status = %d, want %d", got, http.StatusBadRequest)
		}
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		recorder := env.do(t, http.MethodGet, "/chat", nil)
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want %d", recorder.Code, http.StatusMethodNotAllowed)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodPost {
			t.Fatalf("Allow = %q, want %q", allow, http.MethodPost)
		}
	})
}

func TestAgendaEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.store.SavePatient(ctx, testfixtures.ConfirmedPatient("Dona Maria")); err != nil {
		t.Fatalf("SavePatient: %v", err)
	}
	if _, err := env.medications.Create(ctx, testfixtures.NewMedicationFixture(
		testfixtures.WithName("Losartana"),
		testfixtures.WithTimes("08:00", "16:00"),
	)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	paused, err := env.medications.Create(ctx, testfixtures.NewMedicationFixture(
		testfixtures.WithName("Dipirona"),
		testfixtures.WithTimes("12:00"),
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.medications.Pause(ctx, paused.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	recorder := env.do(t, http.MethodGet, "/api/agenda", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	resp := decodeBody[agendaResponse](t, recorder)

	if resp.Patient.Name != "Dona Maria" {
		t.Errorf("paciente.nome = %q, want %q", resp.Patient.Name, "Dona Maria")
	}
	if resp.Settings.SleepStart != "23:00" || resp.Settings.SleepEnd != "07:00" {
		t.Errorf("configuracoes = %+v, want sleep window 23:00 to 07:00", resp.Settings)
	}
	if len(resp.Medications) != 1 {
		t.Fatalf("medicamentos length = %d, want 1 (paused records stay out)", len(resp.Medications))
	}
	entry := resp.Medications[0]
	if entry.Name != "Losartana" {
		t.Errorf("nome = %q, want %q", entry.Name, "Losartana")
	}
	// Reference clock sits at 15:04, so 16:00 is the next slot.
	if entry.NextTime != "16:00" {
		t.Errorf("proximo_horario = %q, want %q", entry.NextTime, "16:00")
	}
	if len(entry.Times) != 2 || entry.Times[0] != "08:00" || entry.Times[1] != "16:00" {
		t.Errorf("horario = %v, want [08:00 16:00]", entry.Times)
	}
	if !entry.Active {
		t.Error("ativo = false, want true")
	}
}

func TestConfirmEndpoint(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, env testEnv) {
		t.Helper()
		if _, err := env.medications.Create(context.Background(), testfixtures.NewMedicationFixture(
			testfixtures.WithName("Amoxicilina"),
			testfixtures.WithTimes("06:00", "12:00", "18:00"),
			testfixtures.WithInterval(6),
		)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	t.Run("late confirmation returns the adjusted next dose", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		seed(t, env)

		// The bracelet reports horario_real with seconds attached.
		body := []byte(`{"medicamento":"Amoxicilina","horario":"06:00","horario_real":"10:00:00","data":"02/01/2024"}`)
		recorder := env.do(t, http.MethodPost, "/api/confirmar", body)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusCreated, recorder.Body)
		}
		resp := decodeBody[confirmationResponse](t, recorder)
		if resp.Status != "ok" {
			t.Errorf("status field = %q, want %q", resp.Status, "ok")
		}
		if resp.AdjustedNext != "16:00" {
			t.Errorf("proxima_dose = %q, want %q", resp.AdjustedNext, "16:00")
		}
	})

	t.Run("adjustment past midnight omits proxima_dose", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		seed(t, env)

		body := []byte(`{"medicamento":"Amoxicilina","horario":"18:00","horario_real":"20:00"}`)
		recorder := env.do(t, http.MethodPost, "/api/confirmar", body)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusCreated, recorder.Body)
		}
		if strings.Contains(recorder.Body.String(), "proxima_dose") {
			t.Fatalf("body = %s, want no proxima_dose field", recorder.Body)
		}
	})

	t.Run("ambiguous name returns the candidate list", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()

		for _, times := range [][]string{{"08:00"}, {"12:00"}} {
			if _, err := env.medications.Create(ctx, testfixtures.NewMedicationFixture(
				testfixtures.WithName("Losartana"),
				testfixtures.WithTimes(times...),
			)); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		body := []byte(`{"medicamento":"Losartana","horario":"08:00","horario_real":"08:10"}`)
		recorder := env.do(t, http.MethodPost, "/api/confirmar", body)
		if recorder.Code != http.StatusConflict {
			t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusConflict, recorder.Body)
		}
		resp := decodeBody[errorResponse](t, recorder)
		if resp.ErrorCode != "NOME_AMBIGUO" {
			t.Errorf("error_code = %q, want NOME_AMBIGUO", resp.ErrorCode)
		}
		if len(resp.Candidates) != 2 {
			t.Fatalf("candidatos = %+v, want both records listed", resp.Candidates)
		}
		if resp.Candidates[0].Name != "Losartana" || resp.Candidates[0].ID == resp.Candidates[1].ID {
			t.Errorf("candidatos = %+v, want two distinct Losartana entries", resp.Candidates)
		}
	})

	t.Run("unknown medication maps to 404", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		seed(t, env)

		body := []byte(`{"medicamento":"Inexistente","horario":"06:00","horario_real":"06:10"}`)
		if got := env.do(t, http.MethodPost, "/api/confirmar", body).Code; got != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", got, http.StatusNotFound)
		}
	})

	t.Run("invalid actual time maps to 422", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		seed(t, env)

		body := []byte(`{"medicamento":"Amoxicilina","horario":"06:00","horario_real":"25:99"}`)
		if got := env.do(t, http.MethodPost, "/api/confirmar", body).Code; got != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", got, http.StatusUnprocessableEntity)
		}
	})
}

func TestPhotoEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("attach and serve round trip", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()

		medication, err := env.medications.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana")))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		payload := []byte("fake-jpeg-bytes")
		recorder := env.do(t, http.MethodPost, "/api/medicamentos/1/foto", payload)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("attach status = %d, want %d: %s", recorder.Code, http.StatusCreated, recorder.Body)
		}
		resp := decodeBody[photoAttachResponse](t, recorder)
		if resp.PhotoRef == "" {
			t.Fatal("img_arquivo is empty")
		}

		stored, err := env.medications.Get(ctx, medication.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if stored.PhotoRef == nil || *stored.PhotoRef != resp.PhotoRef {
			t.Fatalf("stored photo ref = %v, want %q", stored.PhotoRef, resp.PhotoRef)
		}

		served := env.do(t, http.MethodGet, "/api/imagens/"+resp.PhotoRef, nil)
		if served.Code != http.StatusOK {
			t.Fatalf("serve status = %d, want %d", served.Code, http.StatusOK)
		}
		if !bytes.Equal(served.Body.Bytes(), payload) {
			t.Fatalf("served bytes = %q, want %q", served.Body.Bytes(), payload)
		}
	})

	t.Run("replacing a photo releases the previous blob", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()

		if _, err := env.medications.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"))); err != nil {
			t.Fatalf("Create: %v", err)
		}

		first := decodeBody[photoAttachResponse](t, env.do(t, http.MethodPost, "/api/medicamentos/1/foto", []byte("first")))
		second := decodeBody[photoAttachResponse](t, env.do(t, http.MethodPost, "/api/medicamentos/1/foto", []byte("second")))
		if first.PhotoRef == second.PhotoRef {
			t.Fatalf("both uploads produced ref %q", first.PhotoRef)
		}

		if _, err := env.photos.Path(first.PhotoRef); err == nil {
			t.Error("previous photo still present, want it released")
		}
		if _, err := env.photos.Path(second.PhotoRef); err != nil {
			t.Errorf("current photo missing: %v", err)
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if got := env.do(t, http.MethodPost, "/api/medicamentos/99/foto", []byte("data")).Code; got != http.StatusNotFound {
			t.Errorf("unknown medication status = %d, want %d", got, http.StatusNotFound)
		}
		if got := env.do(t, http.MethodPost, "/api/medicamentos/abc/foto", []byte("data")).Code; got != http.StatusBadRequest {
			t.Errorf("non-numeric id status = %d, want %d", got, http.StatusBadRequest)
		}
		if got := env.do(t, http.MethodGet, "/api/imagens/missing.jpg", nil).Code; got != http.StatusNotFound {
			t.Errorf("missing image status = %d, want %d", got, http.StatusNotFound)
		}
		if got := env.do(t, http.MethodPost, "/api/medicamentos/1/extra/foto", nil).Code; got != http.StatusNotFound {
			t.Errorf("malformed path status = %d, want %d", got, http.StatusNotFound)
		}
	})
}
