package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/weatherchat/backend/internal/config"
	"github.com/zhouzirui/weatherchat/backend/internal/speech"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	mode := flag.String("mode", "chat", "测试模式: chat 或 asr")
	server := flag.String("server", "http://localhost:8080", "chat 模式下的后端地址")
	text := flag.String("text", "", "chat 模式的输入文本")
	locale := flag.String("locale", "", "会话语言 en 或 ja")
	audioPath := flag.String("audio", "", "asr 模式的音频文件路径")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "chat":
		runChat(ctx, *server, *locale, *text)
	case "asr":
		runASR(ctx, *audioPath, *locale)
	default:
		flag.Usage()
		log.Fatal("请通过 -mode=chat 或 -mode=asr 指定测试模式")
	}
}

func runChat(ctx context.Context, server, locale, text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("chat 模式需要通过 -text 提供输入文本")
	}

	client := cleanhttp.DefaultClient()
	base := strings.TrimRight(server, "/") + "/api"

	var created struct {
		Session struct {
			ID     string `json:"id"`
			Locale string `json:"locale"`
		} `json:"session"`
		Welcome string `json:"welcome"`
	}
	if err := postJSON(ctx, client, base+"/session", map[string]string{"locale": locale}, &created); err != nil {
		log.Fatalf("创建会话失败: %v", err)
	}
	log.Printf("会话已创建: id=%s locale=%s", created.Session.ID, created.Session.Locale)
	log.Printf("欢迎语: %s", created.Welcome)

	var reply struct {
		Content string `json:"content"`
	}
	start := time.Now()
	if err := postJSON(ctx, client, base+"/session/"+created.Session.ID+"/messages", map[string]string{"content": text}, &reply); err != nil {
		log.Fatalf("发送消息失败: %v", err)
	}

	log.Printf("回复耗时 %s", time.Since(start).Round(time.Millisecond))
	fmt.Println(reply.Content)
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

func runASR(ctx context.Context, audioPath, language string) {
	if audioPath == "" {
		log.Fatal("asr 模式需要通过 -audio 指定音频文件路径")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	recognizer := speech.NewWhisperRecognizer(cfg.Speech)
	if recognizer == nil {
		log.Fatal("语音识别未启用，请先配置 SPEECH_OPENAI_API_KEY")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		log.Fatalf("打开音频文件失败: %v", err)
	}
	defer file.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
	log.Printf("开始进行 ASR 测试: format=%s language=%s", format, language)

	text, err := speech.Transcribe(ctx, recognizer, file, -1, format, language)
	if err != nil {
		log.Fatalf("ASR 调用失败: %v", err)
	}
	log.Printf("ASR 识别成功: text=%q", text)
}
