package visitordashboard_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	"github.com/dalemusser/visitdesk/internal/app/system/searchmodel"
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
)

func TestRegister(t *testing.T) {
	reg := viewregistry.New()
	if err := visitordashboard.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	m, _ := searchmodel.New(nil)
	w, err := reg.NewWidget(visitordashboard.WidgetName, viewregistry.Env{
		Search: m,
		Counts: &fakeCounts{},
	})
	if err != nil {
		t.Fatalf("NewWidget: %v", err)
	}
	if _, ok := w.(*visitordashboard.Widget); !ok {
		t.Fatalf("unexpected widget type %T", w)
	}

	if err := visitordashboard.Register(reg); !errors.Is(err, viewregistry.ErrDuplicate) {
		t.Errorf("second Register: expected ErrDuplicate, got %v", err)
	}
}
