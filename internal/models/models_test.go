package models

import (
	"encoding/json"
	"testing"
)

func TestUserWithGrants(t *testing.T) {
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	user := User{ID: "u1", Platform: "discord", Name: "ana", Authority: 2}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}
	grant := Grant{ID: "g1", UserID: "u1", Permission: "group.ops"}
	if err := db.Create(&grant).Error; err != nil {
		t.Fatalf("creating grant: %v", err)
	}

	var loaded User
	if err := db.Preload("Grants").First(&loaded, "id = ?", "u1").Error; err != nil {
		t.Fatalf("loading user: %v", err)
	}
	if len(loaded.Grants) != 1 || loaded.Grants[0].Permission != "group.ops" {
		t.Fatalf("unexpected grants %+v", loaded.Grants)
	}
	if loaded.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestInvocationJSONRoundTrip(t *testing.T) {
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	args, _ := json.Marshal([]string{"one", "two"})
	row := Invocation{
		ID:      "i1",
		Command: "echo",
		Args:    JSON(args),
		Status:  InvocationStatusOK,
		Output:  "one two",
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("creating invocation: %v", err)
	}

	var loaded Invocation
	if err := db.First(&loaded, "id = ?", "i1").Error; err != nil {
		t.Fatalf("loading invocation: %v", err)
	}
	var decoded []string
	if err := json.Unmarshal(loaded.Args, &decoded); err != nil {
		t.Fatalf("decoding args: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != "one" {
		t.Fatalf("unexpected args %v", decoded)
	}
}

func TestJSONValueAndScan(t *testing.T) {
	var j JSON
	if err := j.Scan(`{"a":1}`); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	v, err := j.Value()
	if err != nil || v != `{"a":1}` {
		t.Fatalf("Value: got (%v, %v)", v, err)
	}

	var empty JSON
	v, err = empty.Value()
	if err != nil || v != "null" {
		t.Fatalf("empty Value: got (%v, %v)", v, err)
	}
	if err := j.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if string(j) != "null" {
		t.Fatalf("Scan nil: got %q", string(j))
	}
	if err := j.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
