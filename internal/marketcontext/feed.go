package marketcontext

import (
	"time"

	"quantdash/internal/models"
)

// newsFeed - статический фид новостей. Временные метки считаются
// относительно момента обновления, чтобы лента не выглядела устаревшей
func newsFeed(now time.Time) []models.NewsItem {
	return []models.NewsItem{
		{
			ID:              1,
			Title:           "Apple Reports Record Q4 Earnings",
			Description:     "Apple Inc. reported record quarterly revenue driven by strong iPhone sales",
			Content:         "Apple Inc. (AAPL) reported record quarterly revenue of $123.9 billion, beating analyst expectations...",
			Source:          "news",
			Author:          "Reuters",
			URL:             "https://example.com/news/1",
			Timestamp:       now.Add(-2 * time.Hour),
			SentimentScore:  0.7,
			ConfidenceScore: 0.9,
			RelevanceScore:  0.95,
		},
		{
			ID:              2,
			Title:           "Tesla Stock Surges on Autonomous Driving Update",
			Description:     "Tesla shares jump 8% after announcing major FSD improvements",
			Content:         "Tesla Inc. (TSLA) shares surged in after-hours trading following the company's announcement...",
			Source:          "news",
			Author:          "CNBC",
			URL:             "https://example.com/news/2",
			Timestamp:       now.Add(-4 * time.Hour),
			SentimentScore:  0.8,
			ConfidenceScore: 0.85,
			RelevanceScore:  0.9,
		},
		{
			ID:              3,
			Title:           "Market Volatility Expected Amid Fed Decision",
			Description:     "Analysts predict increased volatility as Federal Reserve meeting approaches",
			Content:         "Financial markets are bracing for potential volatility as the Federal Reserve prepares...",
			Source:          "news",
			Author:          "Bloomberg",
			URL:             "https://example.com/news/3",
			Timestamp:       now.Add(-6 * time.Hour),
			SentimentScore:  -0.2,
			ConfidenceScore: 0.75,
			RelevanceScore:  0.8,
		},
	}
}

// sentimentFeed - статический фид постов из соцсетей
func sentimentFeed(now time.Time) []models.SentimentItem {
	return []models.SentimentItem{
		{
			ID:              1,
			Content:         "AAPL looking strong after earnings! 🚀 #bullish",
			Source:          "twitter",
			Author:          "traderpro123",
			Timestamp:       now.Add(-30 * time.Minute),
			SentimentScore:  0.8,
			ConfidenceScore: 0.9,
			RelevanceScore:  0.85,
		},
		{
			ID:              2,
			Content:         "Tesla FSD update is game changing. This could be the catalyst we've been waiting for.",
			Source:          "reddit",
			Author:          "TechInvestor",
			Timestamp:       now.Add(-45 * time.Minute),
			SentimentScore:  0.9,
			ConfidenceScore: 0.85,
			RelevanceScore:  0.9,
		},
		{
			ID:              3,
			Content:         "Market feels toppy here. Might be time to take some profits. #bearish",
			Source:          "twitter",
			Author:          "marketwatch_pro",
			Timestamp:       now.Add(-time.Hour),
			SentimentScore:  -0.6,
			ConfidenceScore: 0.7,
			RelevanceScore:  0.6,
		},
		{
			ID:              4,
			Content:         "GOOGL AI announcements are impressive but stock seems fairly valued at current levels",
			Source:          "reddit",
			Author:          "ValueInvestor2024",
			Timestamp:       now.Add(-90 * time.Minute),
			SentimentScore:  0.1,
			ConfidenceScore: 0.8,
			RelevanceScore:  0.75,
		},
	}
}
