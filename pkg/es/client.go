// Package es 提供了与 Elasticsearch 交互的客户端功能，用于 AI 请求历史的全文检索。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quill-ai-go/internal/config"
	"quill-ai-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// HistoryDocument 是索引中的一条 AI 请求记录。
type HistoryDocument struct {
	RequestID      string    `json:"request_id"`
	UserID         uint      `json:"user_id"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	RequestType    string    `json:"request_type"`
	Status         string    `json:"status"`
	InputText      string    `json:"input_text"`
	OutputText     string    `json:"output_text"`
	TokensUsed     int       `json:"tokens_used"`
	ProcessingTime float64   `json:"processing_time"`
	CreatedAt      time.Time `json:"created_at"`
}

const historyMapping = `{
	"mappings": {
		"properties": {
			"request_id": { "type": "keyword" },
			"user_id": { "type": "long" },
			"provider": { "type": "keyword" },
			"model": { "type": "keyword" },
			"request_type": { "type": "keyword" },
			"status": { "type": "keyword" },
			"input_text": { "type": "text" },
			"output_text": { "type": "text" },
			"tokens_used": { "type": "integer" },
			"processing_time": { "type": "float" },
			"created_at": { "type": "date" }
		}
	}
}`

// Client 封装了 Elasticsearch 客户端和历史索引名。
type Client struct {
	es        *elasticsearch.Client
	indexName string
}

// InitES 初始化 Elasticsearch 客户端并确保历史索引存在。
func InitES(esCfg config.ElasticsearchConfig) (*Client, error) {
	c, err := NewClient(esCfg, &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	})
	if err != nil {
		return nil, err
	}
	if err := c.createIndexIfNotExists(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClient 仅创建客户端，不访问集群。
func NewClient(esCfg config.ElasticsearchConfig, transport http.RoundTripper) (*Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}
	return &Client{es: client, indexName: esCfg.IndexName}, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func (c *Client) createIndexIfNotExists(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.indexName}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = c.es.Indices.Create(
		c.indexName,
		c.es.Indices.Create.WithBody(strings.NewReader(historyMapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", c.indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", c.indexName)
	return nil
}

// IndexRequest 以 request_id 作为文档 ID 写入，重复投递是幂等的。
func (c *Client) IndexRequest(ctx context.Context, doc HistoryDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.indexName,
		DocumentID: doc.RequestID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}
	return nil
}

// buildSearchQuery 构造只检索指定用户记录的查询，按时间倒序。
func buildSearchQuery(userID uint, query string, size int) map[string]interface{} {
	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"input_text", "output_text^2"},
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"user_id": userID}},
				},
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source HistoryDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchHistory 在用户自己的请求历史中做全文检索。
func (c *Client) SearchHistory(ctx context.Context, userID uint, query string, size int) ([]HistoryDocument, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchQuery(userID, query, size)); err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.indexName),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search returned error: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	out := make([]HistoryDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
