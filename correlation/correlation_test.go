package correlation

import (
	"context"
	"testing"

	"github.com/go-playground/errors/v5"
	"github.com/google/go-cmp/cmp"
)

type fakeSession struct {
	values    map[string]any
	setErr    error
	deleteErr error
	deletes   []string
}

func (f *fakeSession) Get(key string) (any, bool) {
	v, ok := f.values[key]

	return v, ok
}

func (f *fakeSession) Set(key string, value any) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value

	return nil
}

func (f *fakeSession) Delete(key string) error {
	f.deletes = append(f.deletes, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.values[key]; !ok {
		return errors.New("key not found")
	}
	delete(f.values, key)

	return nil
}

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		issuer   string
		clientID string
		want     string
	}{
		{name: "host", issuer: "https://op.example.com", clientID: "rp", want: "oidc:op.example.com:rp"},
		{name: "port and path", issuer: "https://op.example.com:8443/realms/main", clientID: "rp", want: "oidc:op.example.com:rp"},
		{name: "not a url", issuer: "op", clientID: "rp", want: "oidc:op:rp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Key(tt.issuer, tt.clientID); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_Put(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setErr  error
		wantErr bool
	}{
		{name: "stores entry"},
		{name: "session write fails", setErr: errors.New("session full"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sess := &fakeSession{values: map[string]any{}, setErr: tt.setErr}
			entry := Entry{State: "s", Nonce: "n"}

			err := NewStore(sess).Put("k", entry)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Store.Put() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(entry, sess.values["k"]); diff != "" {
				t.Errorf("Store.Put() stored mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_TakeOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		values    map[string]any
		deleteErr error
		want      Entry
		wantFound bool
	}{
		{
			name:      "entry",
			values:    map[string]any{"k": Entry{State: "s", Nonce: "n"}},
			want:      Entry{State: "s", Nonce: "n"},
			wantFound: true,
		},
		{
			name:      "entry pointer",
			values:    map[string]any{"k": &Entry{State: "s"}},
			want:      Entry{State: "s"},
			wantFound: true,
		},
		{
			name:      "decoded map",
			values:    map[string]any{"k": map[string]any{"state": "s", "nonce": "n", "code_verifier": "v"}},
			want:      Entry{State: "s", Nonce: "n", CodeVerifier: "v"},
			wantFound: true,
		},
		{
			name:      "json bytes",
			values:    map[string]any{"k": []byte(`{"state":"s"}`)},
			want:      Entry{State: "s"},
			wantFound: true,
		},
		{
			name:   "missing entry still deletes",
			values: map[string]any{},
		},
		{
			name:   "corrupt entry",
			values: map[string]any{"k": "not json"},
		},
		{
			name:      "delete failure is ignored",
			values:    map[string]any{"k": Entry{State: "s"}},
			deleteErr: errors.New("read only session"),
			want:      Entry{State: "s"},
			wantFound: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sess := &fakeSession{values: tt.values, deleteErr: tt.deleteErr}

			got, found := NewStore(sess).TakeOnce(context.Background(), "k")
			if found != tt.wantFound {
				t.Fatalf("Store.TakeOnce() found = %v, want %v", found, tt.wantFound)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Store.TakeOnce() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"k"}, sess.deletes); diff != "" {
				t.Errorf("Store.TakeOnce() deletes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_TakeOnce_singleUse(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{values: map[string]any{}}
	store := NewStore(sess)
	if err := store.Put("k", Entry{State: "s"}); err != nil {
		t.Fatalf("Store.Put() error = %v", err)
	}

	if _, found := store.TakeOnce(context.Background(), "k"); !found {
		t.Fatal("Store.TakeOnce() first call found = false")
	}
	if _, found := store.TakeOnce(context.Background(), "k"); found {
		t.Fatal("Store.TakeOnce() second call found = true")
	}
}
