package database

import (
	"log"
	"time"

	"readingroom/internal/entities"
)

var demoBooks = []entities.Book{
	{
		Title:  "红楼梦",
		Author: "曹雪芹",
		Status: string(entities.StatusRead),
		Rating: 5,
		Summary: "中国封建社会的百科全书，通过贾王史薛四大家族的兴衰，" +
			"展现了封建社会的百态。",
		Review: "字字看来皆是血，十年辛苦不寻常。中国文学史上不可逾越的高山。",
		Quotes: entities.QuoteList{
			{Content: "满纸荒唐言，一把辛酸泪。", ID: 1},
			{Content: "假作真时真亦假，无为有处有还无。", ID: 2},
		},
		ReadingDate:     "2025-01-15",
		ReadingProgress: 100,
		TotalPages:      500,
	},
	{
		Title:  "万历十五年",
		Author: "黄仁宇",
		Status: string(entities.StatusRead),
		Rating: 4,
		Summary: "从看似平淡的明朝万历十五年入手，剖析中国传统社会的结构与制度。",
		Review:  "大历史观的代表作，深入浅出，令人深思。",
		Quotes: entities.QuoteList{
			{Content: "大凡高度的组织，其重心必在下层。", ID: 3},
		},
		ReadingDate:     "2024-11-20",
		ReadingProgress: 100,
		TotalPages:      320,
	},
	{
		Title:  "解忧杂货店",
		Author: "东野圭吾",
		Status: string(entities.StatusReading),
		Rating: 4,
		Summary: "温情治愈的悬疑小说，穿越时空的信件连接起了几个人的命运。",
		Review:  "所有的救赎，最后其实都是自救。",
		Quotes: entities.QuoteList{
			{Content: "正因为是白纸，所以可以画任何地图。", ID: 5},
		},
		ReadingProgress: 65,
		TotalPages:      280,
	},
}

// SeedIfEmpty inserts a small demo catalog when the books table holds
// no rows so a fresh install starts with something to browse.
func (d *Database) SeedIfEmpty() error {
	var count int64
	if err := d.DB.Model(&entities.Book{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	today := time.Now().Format("2006-01-02")
	for _, book := range demoBooks {
		book := book
		if book.ReadingDate == "" {
			book.ReadingDate = today
		}
		if err := d.DB.Create(&book).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded catalog with %d demo books", len(demoBooks))
	return nil
}
