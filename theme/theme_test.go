package theme

import (
	"testing"

	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/storage"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		pref, system, want models.Theme
	}{
		{models.ThemeLight, models.ThemeDark, models.ThemeLight},
		{models.ThemeDark, models.ThemeLight, models.ThemeDark},
		{models.ThemeAuto, models.ThemeLight, models.ThemeLight},
		{models.ThemeAuto, models.ThemeDark, models.ThemeDark},
		{models.ThemeAuto, "", models.ThemeDark},
		{"", models.ThemeLight, models.ThemeLight},
	}

	for _, tt := range tests {
		t.Run(string(tt.pref)+"/"+string(tt.system), func(t *testing.T) {
			if got := Resolve(tt.pref, tt.system); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.pref, tt.system, got, tt.want)
			}
		})
	}
}

func TestIcons(t *testing.T) {
	dark := Icons(models.ThemeDark)
	light := Icons(models.ThemeLight)

	for _, size := range []string{"16", "32", "48", "128"} {
		if want := "icons/titleflix" + size + "_dark.png"; dark[size] != want {
			t.Errorf("dark[%s] = %q, want %q", size, dark[size], want)
		}
		if want := "icons/titleflix" + size + "_light.png"; light[size] != want {
			t.Errorf("light[%s] = %q, want %q", size, light[size], want)
		}
	}
}

func TestService_FollowsStore(t *testing.T) {
	st, _ := storage.Open("")
	_ = st.Set(map[string]any{models.KeyTheme: "light"})

	svc := NewService(st)
	svc.Start()
	defer svc.Stop()

	if got := svc.Icon(); got.Resolved != models.ThemeLight || got.Paths["16"] != "icons/titleflix16_light.png" {
		t.Errorf("startup icon = %+v", got)
	}

	_ = st.Set(map[string]any{models.KeyTheme: "auto", models.KeySystemTheme: "light"})
	if got := svc.Icon(); got.Preference != models.ThemeAuto || got.Resolved != models.ThemeLight {
		t.Errorf("after auto/light: %+v", got)
	}

	_ = st.Set(map[string]any{models.KeySystemTheme: "dark"})
	if got := svc.Icon(); got.Resolved != models.ThemeDark {
		t.Errorf("after system dark: %+v", got)
	}
}

func TestService_HandleMessage(t *testing.T) {
	st, _ := storage.Open("")
	svc := NewService(st)
	svc.Start()
	defer svc.Stop()

	resp := svc.HandleMessage(models.Message{Type: models.MessageThemeChanged, Theme: models.ThemeLight})
	if !resp.Success {
		t.Fatal("THEME_CHANGED should succeed")
	}
	if got := svc.Icon(); got.Resolved != models.ThemeLight {
		t.Errorf("icon after message = %+v", got)
	}

	if resp := svc.HandleMessage(models.Message{Type: "PING"}); resp.Success {
		t.Error("unknown message type should not succeed")
	}
}

func TestService_ClosedStoreFallsBackToDark(t *testing.T) {
	st, _ := storage.Open("")
	svc := NewService(st)
	_ = st.Close()

	svc.HandleMessage(models.Message{Type: models.MessageThemeChanged, Theme: models.ThemeAuto})
	if got := svc.Icon(); got.Resolved != models.ThemeDark {
		t.Errorf("icon = %+v, want dark fallback", got)
	}
}
