package dataset

import "fmt"

// Sample categories and topics used to synthesize a small corpus when no
// real dataset download is available. Generation is deterministic so test
// scenarios reproduce exactly.
var sampleCategories = []string{
	"cs.AI", "cs.CL", "cs.CV", "cs.LG", "cs.NE",
	"cs.DB", "cs.DC", "cs.SE", "cs.PL", "cs.CR",
}

var sampleTopics = [][3]string{
	{"deep learning", "neural networks", "training"},
	{"natural language processing", "transformers", "attention"},
	{"computer vision", "image classification", "convolutional"},
	{"distributed systems", "consensus", "replication"},
	{"database systems", "query optimization", "indexing"},
	{"machine learning", "gradient descent", "optimization"},
	{"reinforcement learning", "policy", "reward"},
	{"graph neural networks", "node embeddings", "aggregation"},
	{"knowledge graphs", "reasoning", "embeddings"},
	{"federated learning", "privacy", "aggregation"},
}

// SampleRecords generates n synthetic raw records. The fallback is explicit
// and opt-in; it is never substituted for a missing real dataset silently.
func SampleRecords(n int) []*RawRecord {
	records := make([]*RawRecord, 0, n)
	for i := 0; i < n; i++ {
		topic := sampleTopics[i%len(sampleTopics)]
		category := sampleCategories[i%len(sampleCategories)]

		records = append(records, &RawRecord{
			ID:    fmt.Sprintf("%04d.%05d", 2000+i/100, i%10000),
			Title: fmt.Sprintf("Advances in %s: A Study of %s and %s", topic[0], topic[1], topic[2]),
			Abstract: fmt.Sprintf(
				"This paper presents a comprehensive study of %s with focus on %s. "+
					"We propose a novel approach using %s that achieves state-of-the-art results. "+
					"Our method is evaluated on multiple benchmark datasets and demonstrates "+
					"significant improvements over existing baselines.",
				topic[0], topic[1], topic[2]),
			Categories: categoryList{category},
			Authors:    fmt.Sprintf("Author %d, Author %d, Author %d", i%5+1, (i+1)%5+1, (i+2)%5+1),
			UpdateDate: fmt.Sprintf("2023-%02d-%02d", i%12+1, i%28+1),
		})
	}
	return records
}
