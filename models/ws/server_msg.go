package wsmodels

type ServerMessage struct {
	Time string      `json:"time"`           // время события
	Code string      `json:"code"`           // код события
	Msg  string      `json:"msg"`            // текст события
	Data interface{} `json:"data,omitempty"` // данные события
}

const (
	CodeConnected = "connected" // соединение установлено, data - текущая воронка
)
