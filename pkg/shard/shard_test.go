package shard

import "testing"

func TestOwns_PartitionIsTotalAndDisjoint(t *testing.T) {
	const total = 4
	chatIDs := []int64{-1002233445566, -987654321, -5, -1, 0, 1, 42, 123456789, 1002233445566}

	for _, chatID := range chatIDs {
		owners := 0
		for index := 0; index < total; index++ {
			if Owns(chatID, total, index) {
				owners++
			}
		}
		if owners != 1 {
			t.Fatalf("chat %d owned by %d instances, want exactly 1", chatID, owners)
		}
	}
}

func TestOwns_Deterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		if Owns(-1002233445566, 3, 0) != Owns(-1002233445566, 3, 0) {
			t.Fatal("ownership must be deterministic")
		}
	}
}

func TestOwns_NegativeIDMatchesAbsoluteValue(t *testing.T) {
	const total = 7
	for index := 0; index < total; index++ {
		if Owns(-444, total, index) != Owns(444, total, index) {
			t.Fatalf("index %d: -444 and 444 must shard identically", index)
		}
	}
}

func TestOwns_SingleInstanceOwnsEverything(t *testing.T) {
	for _, total := range []int{0, 1} {
		if !Owns(-98765, total, 0) {
			t.Fatalf("total=%d: single instance must own every chat", total)
		}
	}
}
