package convert

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

func TestConfigMapToModel(t *testing.T) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "web-config", Namespace: "production"},
		Data:       map[string]string{"nginx.conf": "...", "app.env": "MODE=prod"},
		BinaryData: map[string][]byte{"logo.png": {0x89}},
		Immutable:  ptr.To(true),
	}

	got := ConfigMapToModel(cm)
	assertEqual(t, "Name", got.Name, "web-config")
	assertStrings(t, "Keys", got.Keys, []string{"app.env", "nginx.conf"})
	assertStrings(t, "BinaryKeys", got.BinaryKeys, []string{"logo.png"})
	if !got.Immutable {
		t.Error("Immutable = false, want true")
	}
}

func TestConfigMapToModel_Empty(t *testing.T) {
	got := ConfigMapToModel(&corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "empty"}})
	if got.Keys != nil || got.BinaryKeys != nil {
		t.Errorf("Keys = %v, BinaryKeys = %v, want nil", got.Keys, got.BinaryKeys)
	}
	if got.Immutable {
		t.Error("Immutable = true, want false")
	}
}

func TestSecretToModel_KeysOnly(t *testing.T) {
	s := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "production"},
		Type:       corev1.SecretTypeOpaque,
		Data:       map[string][]byte{"password": []byte("hunter2"), "user": []byte("admin")},
		StringData: map[string]string{"user": "admin", "host": "db.local"},
	}

	got := SecretToModel(s)
	assertEqual(t, "Type", got.Type, "Opaque")
	assertStrings(t, "Keys", got.Keys, []string{"host", "password", "user"})
}
