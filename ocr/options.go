package ocr

import "strconv"

// Tesseract page segmentation modes used for plate crops.
const (
	PSMSingleBlock = 6
	PSMSingleLine  = 7
	PSMSingleChar  = 10
)

// PlateWhitelist is the character set plates are printed with.
const PlateWhitelist = "0123456789QWERTYUIOPASDFGHJKLZXCVBNM"

// Tesseract variable names carried in Input.Metadata.
const (
	VarPageSegMode = "tessedit_pageseg_mode"
	VarWhitelist   = "tessedit_char_whitelist"
	VarDPI         = "user_defined_dpi"
)

// WithTesseractPSM sets the page segmentation mode (PSM) variable for Tesseract.
// See https://tesseract-ocr.github.io/tessdoc/ImproveQuality.html#page-segmentation-method for values.
func WithTesseractPSM(mode int) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[VarPageSegMode] = strconv.Itoa(mode)
	}
}

// WithTesseractWhitelist restricts recognition to the provided characters.
func WithTesseractWhitelist(chars string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[VarWhitelist] = chars
	}
}
