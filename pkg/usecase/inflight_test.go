package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
)

func TestInFlight(t *testing.T) {
	f := usecase.NewInFlight()

	release, err := f.Acquire("chat:1")
	gt.NoError(t, err).Required()

	_, err = f.Acquire("chat:1")
	gt.Error(t, err).Is(usecase.ErrInFlight)

	other, err := f.Acquire("chat:2")
	gt.NoError(t, err).Required()
	other()

	release()
	release()

	again, err := f.Acquire("chat:1")
	gt.NoError(t, err).Required()
	again()
}
