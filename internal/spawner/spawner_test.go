package spawner

import (
	"os/exec"
	"testing"
	"time"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/config"
	"github.com/kodflow/daemon/internal/repo"
	"github.com/stretchr/testify/assert"
)

// fakeProcessControl records whether SetProcessGroup was called, without
// asserting on syscall.SysProcAttr internals (those are exercised by
// internal/kernel/adapters' own tests).
type fakeProcessControl struct {
	groupSet bool
}

func (f *fakeProcessControl) SetProcessGroup(cmd *exec.Cmd) { f.groupSet = true }
func (f *fakeProcessControl) GetProcessGroup(pid int) (int, error) {
	return 0, nil
}

func TestSpawnPublishesPIDOnSuccess(t *testing.T) {
	b := bus.New()
	go b.Run()
	defer b.Close()

	ep := b.AddSubscriber()
	svc := &config.Service{Name: "echoer", Command: "/bin/echo hi"}

	Spawn(ep, &fakeProcessControl{}, svc, "")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ep.Events():
			switch ev.Type {
			case bus.ServicePIDAssigned:
				assert.Equal(t, "echoer", ev.ServiceName)
				assert.Greater(t, ev.PID, 0)
				return
			case bus.ServiceStatusChanged:
				t.Fatalf("unexpected failure status: %d", ev.Status)
			}
		case <-deadline:
			t.Fatal("timed out waiting for ServicePIDAssigned")
		}
	}
}

func TestSpawnPublishesFailedOnEmptyCommand(t *testing.T) {
	b := bus.New()
	go b.Run()
	defer b.Close()

	ep := b.AddSubscriber()
	svc := &config.Service{Name: "blank", Command: "   "}

	Spawn(ep, &fakeProcessControl{}, svc, "")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ep.Events():
			if ev.Type == bus.ServiceStatusChanged {
				assert.Equal(t, "blank", ev.ServiceName)
				assert.Equal(t, int(repo.Failed), ev.Status)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for failure status")
		}
	}
}

func TestSpawnPublishesFailedOnExecFailure(t *testing.T) {
	b := bus.New()
	go b.Run()
	defer b.Close()

	ep := b.AddSubscriber()
	svc := &config.Service{Name: "missing", Command: "/nonexistent/binary-does-not-exist"}

	Spawn(ep, &fakeProcessControl{}, svc, "")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ep.Events():
			if ev.Type == bus.ServiceStatusChanged {
				assert.Equal(t, "missing", ev.ServiceName)
				assert.Equal(t, int(repo.Failed), ev.Status)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for failure status")
		}
	}
}

func TestSpawnHonorsStartDelay(t *testing.T) {
	b := bus.New()
	go b.Run()
	defer b.Close()

	ep := b.AddSubscriber()
	svc := &config.Service{
		Name:       "delayed",
		Command:    "/bin/true",
		StartDelay: config.Duration(150 * time.Millisecond),
	}

	start := time.Now()
	Spawn(ep, &fakeProcessControl{}, svc, "")

	for {
		ev := <-ep.Events()
		if ev.Type == bus.ServicePIDAssigned {
			assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
			return
		}
	}
}
