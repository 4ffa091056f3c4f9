package telebirr

import "encoding/xml"

const soapNS = "http://schemas.xmlsoap.org/soap/envelope/"

type envelope[T any] struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	NS      string   `xml:"xmlns:soapenv,attr"`
	Body    struct {
		Content T
	} `xml:"soapenv:Body"`
}

func wrap[T any](content T) envelope[T] {
	env := envelope[T]{NS: soapNS}
	env.Body.Content = content
	return env
}

// inbound envelopes are matched by local name so any namespace prefix decodes.
type inbound[T any] struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Content T
	} `xml:"Body"`
}

type pushRequest struct {
	XMLName      xml.Name `xml:"PushRequest"`
	ShortCode    string   `xml:"ShortCode"`
	ThirdPartyID string   `xml:"ThirdPartyID"`
	OrderNumber  string   `xml:"BillRefNumber"`
	Amount       string   `xml:"Amount"`
	Currency     string   `xml:"Currency"`
	MSISDN       string   `xml:"MSISDN"`
	Signature    string   `xml:"Signature"`
}

type pushResponse struct {
	XMLName        xml.Name `xml:"PushResponse"`
	ResultCode     string   `xml:"ResultCode"`
	ResultDesc     string   `xml:"ResultDesc"`
	ConversationID string   `xml:"ConversationID"`
}

type resultNotification struct {
	XMLName      xml.Name `xml:"ResultNotification"`
	ThirdPartyID string   `xml:"ThirdPartyID"`
	TransID      string   `xml:"TransID"`
	ResultCode   string   `xml:"ResultCode"`
	ResultDesc   string   `xml:"ResultDesc"`
	Signature    string   `xml:"Signature"`
}

type callbackResponse struct {
	XMLName    xml.Name `xml:"CallbackResponse"`
	ResultCode int      `xml:"ResultCode"`
	ResultDesc string   `xml:"ResultDesc"`
}
