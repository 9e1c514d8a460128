package main

import (
	"fmt"

	"github.com/buildhub-next/internal/config"
	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加参与者档案
	profiles := []models.Profile{
		{
			Username: "admin",
			Email:    "admin@buildhub.local",
			Role:     constants.RoleAdmin,
			IsActive: true,
		},
		{
			Username: "engineer-zhang",
			Email:    "zhang@buildhub.local",
			Role:     constants.RoleEngineer,
			Phone:    "13800000001",
			Address:  "上海市浦东新区世纪大道 100 号工地项目部",
			IsActive: true,
		},
		{
			Username: "engineer-li",
			Email:    "li@buildhub.local",
			Role:     constants.RoleEngineer,
			Phone:    "13800000002",
			Address:  "杭州市余杭区文一西路 969 号施工现场",
			IsActive: true,
		},
		{
			Username: "supplier-huaxin",
			Email:    "sales@huaxin.local",
			Role:     constants.RoleSupplier,
			Phone:    "13900000001",
			IsActive: true,
		},
		{
			Username: "supplier-jingang",
			Email:    "sales@jingang.local",
			Role:     constants.RoleSupplier,
			Phone:    "13900000002",
			IsActive: true,
		},
		{
			Username: "agent-wang",
			Email:    "wang@buildhub.local",
			Role:     constants.RoleDelivery,
			Phone:    "13700000001",
			IsActive: true,
		},
		{
			Username: "agent-zhao",
			Email:    "zhao@buildhub.local",
			Role:     constants.RoleDelivery,
			Phone:    "13700000002",
			IsActive: true,
		},
		{
			Username: "agent-chen",
			Email:    "chen@buildhub.local",
			Role:     constants.RoleDelivery,
			Phone:    "13700000003",
			IsActive: false, // 停用示例，分配时应被跳过
		},
	}

	for _, profile := range profiles {
		var existing models.Profile
		if err := models.DB.Where("username = ?", profile.Username).First(&existing).Error; err != nil {
			if err := models.DB.Create(&profile).Error; err != nil {
				stdLog.Printf("Failed to create profile %s: %v", profile.Username, err)
			} else {
				stdLog.Printf("Created profile: %s (%s)", profile.Username, profile.Role)
			}
		} else {
			existing.Email = profile.Email
			existing.Role = profile.Role
			existing.Phone = profile.Phone
			existing.Address = profile.Address
			existing.IsActive = profile.IsActive
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update profile %s: %v", profile.Username, err)
			} else {
				stdLog.Printf("Updated profile: %s (%s)", profile.Username, profile.Role)
			}
		}
	}

	// 添加供应商扩展档案
	supplierSeeds := []struct {
		Username    string
		CompanyName string
		Verified    bool
		Description string
	}{
		{
			Username:    "supplier-huaxin",
			CompanyName: "华新建材有限公司",
			Verified:    true,
			Description: "主营水泥、砂石骨料，长三角地区当日达。",
		},
		{
			Username:    "supplier-jingang",
			CompanyName: "金刚钢材贸易有限公司",
			Verified:    false,
			Description: "螺纹钢、型钢批发，支持工地直送。",
		},
	}

	supplierIDs := map[string]uint{}
	for _, seed := range supplierSeeds {
		var profile models.Profile
		if err := models.DB.Where("username = ?", seed.Username).First(&profile).Error; err != nil {
			stdLog.Printf("Skip supplier profile for %s: profile not found", seed.Username)
			continue
		}

		var existing models.SupplierProfile
		if err := models.DB.Where("profile_id = ?", profile.ID).First(&existing).Error; err != nil {
			supplier := models.SupplierProfile{
				ProfileID:   profile.ID,
				CompanyName: seed.CompanyName,
				Verified:    seed.Verified,
				Description: seed.Description,
			}
			if err := models.DB.Create(&supplier).Error; err != nil {
				stdLog.Printf("Failed to create supplier profile %s: %v", seed.CompanyName, err)
				continue
			}
			supplierIDs[seed.Username] = supplier.ID
			stdLog.Printf("Created supplier profile: %s", seed.CompanyName)
		} else {
			existing.CompanyName = seed.CompanyName
			existing.Verified = seed.Verified
			existing.Description = seed.Description
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update supplier profile %s: %v", seed.CompanyName, err)
				continue
			}
			supplierIDs[seed.Username] = existing.ID
			stdLog.Printf("Updated supplier profile: %s", seed.CompanyName)
		}
	}

	huaxinID := supplierIDs["supplier-huaxin"]
	jingangID := supplierIDs["supplier-jingang"]

	// 添加建材
	materials := []models.Material{
		{
			SupplierID:  huaxinID,
			Name:        "P.O 42.5 普通硅酸盐水泥",
			Category:    "cement",
			Description: "袋装 50kg，适用于一般工业与民用建筑。",
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(28.50)),
			StockLevel:  2000,
			IsActive:    true,
		},
		{
			SupplierID:  huaxinID,
			Name:        "中砂（河砂）",
			Category:    "aggregate",
			Description: "细度模数 2.3-3.0，吨装散售。",
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(120.00)),
			StockLevel:  800,
			IsActive:    true,
		},
		{
			SupplierID:  huaxinID,
			Name:        "C30 预拌混凝土",
			Category:    "concrete",
			Description: "立方米计价，需提前 24 小时预约泵车。",
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(415.00)),
			StockLevel:  300,
			IsActive:    true,
		},
		{
			SupplierID:  jingangID,
			Name:        "HRB400 螺纹钢 Φ12",
			Category:    "steel",
			Description: "9 米定尺，吨装，含出厂质保书。",
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(3680.00)),
			StockLevel:  150,
			IsActive:    true,
		},
		{
			SupplierID:  jingangID,
			Name:        "Q235B 工字钢 20a",
			Category:    "steel",
			Description: "按吨计价，可按需切割。",
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(3950.00)),
			StockLevel:  60,
			IsActive:    true,
		},
		{
			SupplierID:  jingangID,
			Name:        "樟子松建筑木方 4x9",
			Category:    "timber",
			Description: "4 米长，烘干防裂，捆装。",
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(26.80)),
			StockLevel:  0, // 售罄示例，下单应被拒绝
			IsActive:    true,
		},
	}

	for _, material := range materials {
		if material.SupplierID == 0 {
			stdLog.Printf("Skip material %s: supplier_id missing", material.Name)
			continue
		}
		var existing models.Material
		if err := models.DB.Where("supplier_id = ? AND name = ?", material.SupplierID, material.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&material).Error; err != nil {
				stdLog.Printf("Failed to create material %s: %v", material.Name, err)
			} else {
				stdLog.Printf("Created material: %s", material.Name)
			}
		} else {
			existing.Category = material.Category
			existing.Description = material.Description
			existing.UnitPrice = material.UnitPrice
			existing.StockLevel = material.StockLevel
			existing.IsActive = material.IsActive
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update material %s: %v", material.Name, err)
			} else {
				stdLog.Printf("Updated material: %s", material.Name)
			}
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 8 Profiles (1 admin, 2 engineers, 2 suppliers, 3 agents)")
	fmt.Println("- 2 Supplier profiles")
	fmt.Println("- 6 Materials (含零库存示例)")
}
