package deadline_test

import (
	"errors"
	"testing"
	"time"

	"vesna/internal/deadline"
)

func TestNilGuardNeverExpires(t *testing.T) {
	var g *deadline.Guard
	for i := 0; i < 1000; i++ {
		if err := g.Check(); err != nil {
			t.Fatalf("nil guard returned %v", err)
		}
	}
	if g.Expired() {
		t.Fatal("nil guard reports expired")
	}
}

func TestZeroBudgetExpiresOnFirstCheck(t *testing.T) {
	g := deadline.Start(0)
	if err := g.Check(); !errors.Is(err, deadline.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if !g.Expired() {
		t.Fatal("Expired() = false after trip")
	}
}

func TestExpiryIsSticky(t *testing.T) {
	g := deadline.Start(0)
	_ = g.Check()
	// все последующие чекпоинты, включая дешёвые, возвращают ошибку
	for i := 0; i < 200; i++ {
		if err := g.Check(); !errors.Is(err, deadline.ErrExpired) {
			t.Fatalf("check %d: err = %v, want ErrExpired", i, err)
		}
	}
}

func TestGenerousBudgetDoesNotTrip(t *testing.T) {
	g := deadline.Start(time.Hour)
	for i := 0; i < 10000; i++ {
		if err := g.Check(); err != nil {
			t.Fatalf("check %d tripped: %v", i, err)
		}
	}
	if g.Expired() {
		t.Fatal("guard with an hour budget expired")
	}
}

func TestShortBudgetTripsAfterSleep(t *testing.T) {
	g := deadline.Start(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	var err error
	// первый замер часов может прийтись не на первый шаг
	for i := 0; i <= 64; i++ {
		if err = g.Check(); err != nil {
			break
		}
	}
	if !errors.Is(err, deadline.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}
