package backend_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/backend"
	"github.com/aegis-admin/aegis-admin/internal/session"
)

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    backend.Kind
		message string
	}{
		{"bad request", 400, "", backend.KindValidation, "Solicitud inválida"},
		{"unauthorized", 401, "", backend.KindAuthentication, "Credenciales incorrectas"},
		{"forbidden", 403, "", backend.KindAuthorization, "No tienes permisos para esta operación"},
		{"not found", 404, "", backend.KindNotFound, "Recurso no encontrado"},
		{"server error", 500, "", backend.KindServer, "Error interno del servidor"},
		{"server message wins", 422, `{"message":"correo duplicado"}`, backend.KindServer, "correo duplicado"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := session.NewMemoryStore()
			client, _ := pipeline(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				if tc.body != "" {
					_, _ = w.Write([]byte(tc.body))
				}
			}, store, session.NewNotifier(), nil)

			err := client.GetJSON(scopedCtx(), "/users", nil)
			require.Error(t, err)
			require.True(t, backend.HasKind(err, tc.kind))
			require.Equal(t, tc.message, backend.Message(err))
		})
	}
}

func TestUnreachableBackendIsConnectivity(t *testing.T) {
	transport := backend.NewAuthTransport(nil, session.NewMemoryStore(), session.NewNotifier(), nil, nil)
	// Port 0 is never listening.
	client := backend.NewClient("http://127.0.0.1:0", time.Second, transport, nil)

	err := client.GetJSON(scopedCtx(), "/users", nil)
	require.Error(t, err)
	require.True(t, backend.HasKind(err, backend.KindConnectivity))
	require.Equal(t, "No se pudo conectar al servidor. Verifica tu conexión.", backend.Message(err))
}

func TestMessageFallbackForUnknownErrors(t *testing.T) {
	require.Equal(t, "Error de conexión", backend.Message(http.ErrServerClosed))
}
