package meeting

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	bookingID := uuid.New()

	t.Run("builtin derives the room from the booking id", func(t *testing.T) {
		url := Resolve(ProviderBuiltin, "", bookingID)
		assert.Equal(t, "https://meet.sessions.app/room/"+bookingID.String(), url)
	})

	t.Run("builtin ignores any configured base", func(t *testing.T) {
		url := Resolve(ProviderBuiltin, "https://zoom.example/me", bookingID)
		assert.Equal(t, "https://meet.sessions.app/room/"+bookingID.String(), url)
	})

	t.Run("external passes the configured url through", func(t *testing.T) {
		url := Resolve(ProviderExternal, "https://zoom.example/me", bookingID)
		assert.Equal(t, "https://zoom.example/me", url)
	})

	t.Run("external without configuration resolves empty", func(t *testing.T) {
		assert.Empty(t, Resolve(ProviderExternal, "", bookingID))
	})
}
