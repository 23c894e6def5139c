package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
)

func TestPlanLimits_Tabla(t *testing.T) {
	cases := []struct {
		plan entity.Plan
		want entity.Limits
	}{
		{entity.PlanStarter, entity.Limits{Products: 100, Orders: 200, StorageMB: 1000}},
		{entity.PlanPro, entity.Limits{Products: 1000, Orders: 2000, StorageMB: 5000}},
		{entity.PlanEnterprise, entity.Limits{Products: -1, Orders: -1, StorageMB: -1}},
	}
	for _, tc := range cases {
		t.Run(string(tc.plan), func(t *testing.T) {
			assert.Equal(t, tc.want, entity.PlanLimits(tc.plan))
			// función pura: misma entrada, misma salida
			assert.Equal(t, entity.PlanLimits(tc.plan), entity.PlanLimits(tc.plan))
		})
	}
}

func TestPlanLimits_PlanDesconocidoUsaStarter(t *testing.T) {
	assert.Equal(t, entity.PlanLimits(entity.PlanStarter), entity.PlanLimits("gold"))
	assert.Equal(t, entity.PlanLimits(entity.PlanStarter), entity.PlanLimits(""))
}

func TestIsReservedSubdomain_SinDistinguirMayusculas(t *testing.T) {
	for _, s := range []string{"www", "ADMIN", "Api", "app", "mail", "FTP"} {
		assert.True(t, entity.IsReservedSubdomain(s), s)
	}
	assert.False(t, entity.IsReservedSubdomain("shop1"))
}

func TestIsValidSubdomain(t *testing.T) {
	assert.True(t, entity.IsValidSubdomain("shop1"))
	assert.True(t, entity.IsValidSubdomain("my-shop"))
	assert.False(t, entity.IsValidSubdomain("-shop"))
	assert.False(t, entity.IsValidSubdomain("shop-"))
	assert.False(t, entity.IsValidSubdomain("Shop"))
	assert.False(t, entity.IsValidSubdomain("shop.one"))
	assert.False(t, entity.IsValidSubdomain(""))
}

func TestBranding_Merge(t *testing.T) {
	b := entity.Branding{PrimaryColor: "#000", FontFamily: "Inter"}
	got := b.Merge(entity.Branding{PrimaryColor: "#fff", LogoURL: "https://cdn/logo.png"})
	assert.Equal(t, "#fff", got.PrimaryColor)
	assert.Equal(t, "Inter", got.FontFamily)
	assert.Equal(t, "https://cdn/logo.png", got.LogoURL)
}
