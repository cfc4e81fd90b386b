package kernel

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func TestPriorityDispatchOrder(t *testing.T) {
	k := newTestKernel(t, Config{})

	var order []string
	runUntilIdle(t, k, 10, func(task *Task) {
		for i, prio := range []int{2, 5, 3, 5, 2} {
			name := fmt.Sprintf("p%d#%d", prio, i)
			task.Create(prio, func(*Task) { order = append(order, name) })
		}
		order = append(order, "boot")
	})

	want := []string{"boot", "p5#1", "p5#3", "p3#2", "p2#0", "p2#4"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("run order = %v, want %v", order, want)
	}
}

func TestCreatePreemptsLowerPriorityParent(t *testing.T) {
	k := newTestKernel(t, Config{})

	var order []string
	runUntilIdle(t, k, 3, func(task *Task) {
		order = append(order, "A")
		task.Create(5, func(*Task) { order = append(order, "B") })
		order = append(order, "A again")
	})

	if want := []string{"A", "B", "A again"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("run order = %v, want %v", order, want)
	}
}

func TestYieldRoundRobin(t *testing.T) {
	k := newTestKernel(t, Config{})

	var order []string
	worker := func(name string) func(*Task) {
		return func(task *Task) {
			for i := 0; i < 3; i++ {
				order = append(order, name)
				task.Yield()
			}
		}
	}
	runUntilIdle(t, k, 8, func(task *Task) {
		task.Create(4, worker("a"))
		task.Create(4, worker("b"))
		task.Create(4, worker("c"))
	})

	want := []string{"a", "b", "c", "a", "b", "c", "a", "b", "c"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("run order = %v, want %v", order, want)
	}
}

func TestYieldAloneKeepsRunning(t *testing.T) {
	k := newTestKernel(t, Config{})

	var order []string
	var states []Status
	runUntilIdle(t, k, 6, func(task *Task) {
		task.Create(2, func(*Task) { order = append(order, "low") })
		for i := 0; i < 3; i++ {
			task.Yield()
			order = append(order, "high")
			snap, err := k.Inspect(context.Background())
			if err != nil {
				t.Errorf("Inspect() error = %v", err)
				return
			}
			self, _ := findTask(snap, task.MyTid())
			states = append(states, self.Status)
		}
	})

	if want := []string{"high", "high", "high", "low"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("run order = %v, want %v", order, want)
	}
	for i, s := range states {
		if s != StatusActive {
			t.Fatalf("status after yield %d = %s, want %s", i, s, StatusActive)
		}
	}
}

func TestBlockedTaskLeavesReadyQueue(t *testing.T) {
	k := newTestKernel(t, Config{MaxPriority: 8})

	var ran []string
	runUntilIdle(t, k, 7, func(task *Task) {
		task.Create(6, func(c *Task) {
			ran = append(ran, "receiver")
			c.Receive(nil)
			ran = append(ran, "receiver woke")
		})
		task.Create(1, func(*Task) { ran = append(ran, "low") })
	})

	if want := []string{"receiver", "low"}; !reflect.DeepEqual(ran, want) {
		t.Fatalf("run order = %v, want %v", ran, want)
	}
	snap := inspect(t, k)
	if len(snap.Tasks) != 1 || snap.Tasks[0].Status != StatusReceiveBlocked {
		t.Fatalf("tasks = %+v, want one receive blocked task", snap.Tasks)
	}
}
